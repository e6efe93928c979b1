package providers

import (
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/email"
	"github.com/AxelFernandez/agua-andre-sub000/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
