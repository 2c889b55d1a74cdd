package db_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/cnichols1734/belvieu-digital/internal/infra"
)

var Module = fx.Provide(
	provideDB)

func provideDB() *gorm.DB {
	return infra.InitPostgresql()
}
