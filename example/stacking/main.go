// Command stacking drops a column of boxes onto a floor and steps the world
// headless, printing the settle state. It is the smallest end-to-end use of
// the library: build shapes, assemble bodies, add them to a world, step.
package main

import (
	"fmt"
	"log"

	"github.com/akmonengine/quill"
	"github.com/akmonengine/quill/actor"
	"github.com/akmonengine/quill/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	bounds, err := quill.NewBounds(mgl64.Vec2{0, 10}, 40, 40)
	if err != nil {
		log.Fatal(err)
	}
	world, err := quill.NewWorld(bounds, quill.DefaultSettings())
	if err != nil {
		log.Fatal(err)
	}

	floorShape, _ := geometry.NewRectangle(20, 1)
	floor := actor.NewBody()
	if _, err := floor.AddShape(floorShape); err != nil {
		log.Fatal(err)
	}
	floor.UpdateMass(geometry.MassInfinite)
	floor.SetTransform(geometry.NewTransformAt(mgl64.Vec2{0, -0.5}, 0))
	if err := world.AddBody(floor); err != nil {
		log.Fatal(err)
	}

	boxShape, _ := geometry.NewRectangle(1, 1)
	boxes := make([]*actor.Body, 0, 10)
	for i := 0; i < 10; i++ {
		box := actor.NewBody()
		if _, err := box.AddShape(boxShape); err != nil {
			log.Fatal(err)
		}
		box.UpdateMass(geometry.MassNormal)
		box.SetTransform(geometry.NewTransformAt(mgl64.Vec2{0, 0.5 + float64(i)}, 0))
		if err := world.AddBody(box); err != nil {
			log.Fatal(err)
		}
		boxes = append(boxes, box)
	}

	world.AddListener(&quill.Listener{
		OnSleep: func(b *actor.Body) {
			fmt.Printf("body %s fell asleep at %v\n", b.Id(), b.Transform().Position)
		},
	})

	for i := 0; i < 600; i++ {
		if err := world.Step(1.0 / 60.0); err != nil {
			log.Fatal(err)
		}
	}

	asleep := 0
	for _, b := range boxes {
		if b.IsAsleep() {
			asleep++
		}
	}
	fmt.Printf("after 600 steps: %d/%d boxes asleep, %d contacts\n",
		asleep, len(boxes), world.ContactCount())
}
