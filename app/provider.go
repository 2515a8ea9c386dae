package app

import (
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/manifest"
)

// AppServiceProvider registers the zoo beans by hand, the same wiring a
// manifest using Kinds would produce.
type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(app *container.Container) error {
	if err := app.Register("dog", NewDog); err != nil {
		return err
	}
	if err := app.Register("human", NewHuman, "dog"); err != nil {
		return err
	}
	app.Alias("human", "owner")
	app.Tag([]string{"dog"}, "pets")
	return nil
}

// Kinds is the manifest catalog for the zoo.
func Kinds() manifest.Catalog {
	return manifest.Catalog{
		"zoo.dog":   NewDog,
		"zoo.human": NewHuman,
	}
}
