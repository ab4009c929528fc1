package geometry

import "github.com/go-gl/mathgl/mgl64"

// Convex is the closed capability set every collision shape implements.
// The set is exactly what the pipeline consumes: support queries for
// GJK/EPA, farthest features for the clipping manifold solver, axis
// projection for raycasts and bounds, and mass creation for body assembly.
type Convex interface {
	// Center returns the geometric center in local coordinates.
	Center() mgl64.Vec2

	// Radius returns the maximum distance from the given local point to any
	// point on the shape. Bodies use this for the rotation disc.
	Radius(center mgl64.Vec2) float64

	// Project projects the shape onto the axis under the transform.
	Project(axis mgl64.Vec2, transform Transform) Interval

	// Support returns the local point farthest in the local direction.
	Support(direction mgl64.Vec2) mgl64.Vec2

	// FarthestPoint returns the world point farthest in the world direction.
	FarthestPoint(direction mgl64.Vec2, transform Transform) mgl64.Vec2

	// FarthestFeature returns the world vertex or edge farthest in the world
	// direction.
	FarthestFeature(direction mgl64.Vec2, transform Transform) Feature

	// CreateAABB computes the world bounding box under the transform.
	CreateAABB(transform Transform) AABB

	// CreateMass computes the shape's mass properties at the given density.
	CreateMass(density float64) Mass

	// Raycast intersects the ray with the shape under the transform. The ray
	// direction must be normalized; maxLength <= 0 means unbounded.
	Raycast(ray Ray, maxLength float64, transform Transform) (RaycastResult, bool)
}

// Ray is an origin plus a normalized direction.
type Ray struct {
	Origin    mgl64.Vec2
	Direction mgl64.Vec2
}

// RaycastResult is the nearest intersection of a ray with a shape.
type RaycastResult struct {
	Point    mgl64.Vec2
	Normal   mgl64.Vec2
	Distance float64
}
