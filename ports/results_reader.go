package ports

import (
	"kenobase/domain/ecosystem"
)

// ResultsReader loads the upstream coupling-results files a graph is built from
type ResultsReader interface {
	ReadPrimary(path string) (*ecosystem.PrimaryResults, error)
	ReadAlternative(path string) (*ecosystem.AlternativeResults, error)
}
