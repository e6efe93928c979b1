package repository

import (
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	pkgrepository "github.com/AxelFernandez/agua-andre-sub000/pkg/repository"
	"gorm.io/gorm"
)

func Provide(db *gorm.DB) zonadomain.Repository {
	return pkgrepository.ProvideStore[zonadomain.Zona](db)
}
