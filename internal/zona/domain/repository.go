package domain

import pkgrepository "github.com/AxelFernandez/agua-andre-sub000/pkg/repository"

type Repository = pkgrepository.Repository[Zona]
