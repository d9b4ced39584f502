package memory

import (
	"testing"

	"github.com/marmos91/dittophotos/pkg/manifest"
	manifesttesting "github.com/marmos91/dittophotos/pkg/manifest/testing"
)

func TestMemoryManifest(t *testing.T) {
	suite := &manifesttesting.ManifestTestSuite{
		NewManifest: func() manifest.Manifest {
			return New()
		},
	}

	suite.Run(t)
}
