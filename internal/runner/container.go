package runner

import (
	"fmt"

	"github.com/samber/do/v2"
	"go.uber.org/zap"

	"github.com/infracollect/polycraft/internal/artifact"
	"github.com/infracollect/polycraft/internal/engine"
	"github.com/infracollect/polycraft/internal/formats/dicom"
	"github.com/infracollect/polycraft/internal/formats/gzip"
	"github.com/infracollect/polycraft/internal/formats/jpeg"
	"github.com/infracollect/polycraft/internal/formats/mp3"
	"github.com/infracollect/polycraft/internal/formats/pe"
	"github.com/infracollect/polycraft/internal/formats/png"
	"github.com/infracollect/polycraft/internal/formats/zip"
)

// BuildContainer creates a new DI container with all dependencies registered.
// Dependencies are lazily initialized when first requested.
func BuildContainer(logger *zap.Logger) *do.RootScope {
	injector := do.New()

	// Register logger (eager - already created)
	do.ProvideValue(injector, logger)

	do.Provide(injector, func(i do.Injector) (*engine.Registry, error) {
		log := do.MustInvoke[*zap.Logger](i)
		return BuildRegistry(log.Named("registry"))
	})

	do.Provide(injector, func(i do.Injector) (artifact.FillerSource, error) {
		return artifact.DefaultFiller(), nil
	})

	do.Provide(injector, func(i do.Injector) (*Crafter, error) {
		log := do.MustInvoke[*zap.Logger](i)
		registry, err := do.Invoke[*engine.Registry](i)
		if err != nil {
			return nil, err
		}
		return NewCrafter(log.Named("crafter"), registry), nil
	})

	return injector
}

// BuildRegistry creates a registry with every recognizer, most specific formats
// first: a PE or DICOM file may also carry a ZIP, and an MP3 frame sync is the
// weakest signature.
func BuildRegistry(logger *zap.Logger) (*engine.Registry, error) {
	registry := engine.NewRegistry(logger)

	recognizers := []engine.Recognizer{
		pe.Recognizer(),
		dicom.Recognizer(),
		zip.Recognizer(),
		png.Recognizer(),
		jpeg.Recognizer(),
		gzip.Recognizer(),
		mp3.Recognizer(),
	}
	for _, recognizer := range recognizers {
		if err := registry.Register(recognizer); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", recognizer.Code(), err)
		}
	}

	return registry, nil
}
