package migrations

import (
	"io/fs"

	consent "github.com/goliatone/go-consent"
)

func init() {
	coreFS, err := fs.Sub(consent.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(coreFS)
}
