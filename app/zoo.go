// Package app is the demo domain: a Human that has a Dog.
package app

import "fmt"

type Dog struct {
	Name string
}

func (d *Dog) Speak() string { return d.Name + " says woof" }

type Human struct {
	Name string
	Dog  *Dog
}

func (h *Human) String() string {
	if h.Dog == nil {
		return h.Name + " (no dog)"
	}
	return fmt.Sprintf("%s (walks %s)", h.Name, h.Dog.Name)
}

// NewDog is the "dog" constructor.
func NewDog([]any) (any, error) {
	return &Dog{Name: "Rex"}, nil
}

// NewHuman is the "human" constructor. deps[0] must be a *Dog.
func NewHuman(deps []any) (any, error) {
	if len(deps) != 1 {
		return nil, fmt.Errorf("human needs exactly one dependency (a dog), got %d", len(deps))
	}
	dog, ok := deps[0].(*Dog)
	if !ok {
		return nil, fmt.Errorf("human needs a *app.Dog, got %T", deps[0])
	}
	return &Human{Name: "Ann", Dog: dog}, nil
}
