package server

import (
	"errors"
	"net/http"
	"strings"

	auditoriadomain "github.com/AxelFernandez/agua-andre-sub000/internal/auditoria/domain"
	authdomain "github.com/AxelFernandez/agua-andre-sub000/internal/auth/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/authorization"
	boletadomain "github.com/AxelFernandez/agua-andre-sub000/internal/boleta/domain"
	estadisticasdomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadisticas/domain"
	estadodomain "github.com/AxelFernandez/agua-andre-sub000/internal/estadoservicio/domain"
	importaciondomain "github.com/AxelFernandez/agua-andre-sub000/internal/importacion/domain"
	lecturadomain "github.com/AxelFernandez/agua-andre-sub000/internal/lectura/domain"
	medidordomain "github.com/AxelFernandez/agua-andre-sub000/internal/medidor/domain"
	pagodomain "github.com/AxelFernandez/agua-andre-sub000/internal/pago/domain"
	"github.com/AxelFernandez/agua-andre-sub000/internal/storage"
	"github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/calculo"
	tarifariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/tarifario/domain"
	usuariodomain "github.com/AxelFernandez/agua-andre-sub000/internal/usuario/domain"
	zonadomain "github.com/AxelFernandez/agua-andre-sub000/internal/zona/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// errorResponse repeats the message at the top level; clients show it as is.
type errorResponse struct {
	Error   errorPayload `json:"error"`
	Message string       `json:"message"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
)

const (
	typeValidation   = "validation_error"
	typeUnauthorized = "unauthorized"
	typeExpired      = "session_expired"
	typeForbidden    = "forbidden"
	typeNotFound     = "not_found"
	typeConflict     = "conflict"
	typeBusinessRule = "business_rule"
	typeRateLimited  = "rate_limited"
	typeUnavailable  = "service_unavailable"
	typeInternal     = "internal_error"
)

type errorRule struct {
	status  int
	kind    string
	message string
}

// errorRules maps domain sentinels to their HTTP shape. Validation entries
// (400) are reported as a single field error derived from the code.
var errorRules = map[error]errorRule{
	ErrUnauthorized:                       {http.StatusUnauthorized, typeUnauthorized, "No autenticado"},
	authdomain.ErrUnauthorized:            {http.StatusUnauthorized, typeUnauthorized, "No autenticado"},
	authdomain.ErrInvalidToken:            {http.StatusUnauthorized, typeUnauthorized, "No autenticado"},
	authdomain.ErrInvalidCredentials:      {http.StatusUnauthorized, typeUnauthorized, "Credenciales inválidas"},
	authdomain.ErrUsuarioInactivo:         {http.StatusUnauthorized, typeUnauthorized, "El usuario está inactivo"},
	authdomain.ErrSessionExpired:          {http.StatusUnauthorized, typeExpired, "La sesión expiró, ingrese nuevamente"},
	ErrForbidden:                          {http.StatusForbidden, typeForbidden, "No tiene permisos para esta operación"},
	authorization.ErrForbidden:            {http.StatusForbidden, typeForbidden, "No tiene permisos para esta operación"},
	authorization.ErrInvalidActor:         {http.StatusForbidden, typeForbidden, "No tiene permisos para esta operación"},
	pagodomain.ErrBoletaAjena:             {http.StatusForbidden, typeForbidden, "La boleta no pertenece al usuario"},
	ErrRateLimited:                        {http.StatusTooManyRequests, typeRateLimited, "Demasiados intentos, espere un momento"},
	ErrServiceUnavailable:                 {http.StatusServiceUnavailable, typeUnavailable, "Servicio no disponible"},
	authdomain.ErrTokenNotConfigured:      {http.StatusServiceUnavailable, typeUnavailable, "Servicio no disponible"},
	tarifariodomain.ErrSinTarifarioActivo: {http.StatusNotFound, typeNotFound, "No hay un tarifario activo"},

	ErrNotFound:                  {http.StatusNotFound, typeNotFound, "Recurso no encontrado"},
	gorm.ErrRecordNotFound:       {http.StatusNotFound, typeNotFound, "Recurso no encontrado"},
	zonadomain.ErrNotFound:       {http.StatusNotFound, typeNotFound, "Zona no encontrada"},
	usuariodomain.ErrNotFound:    {http.StatusNotFound, typeNotFound, "Usuario no encontrado"},
	medidordomain.ErrNotFound:    {http.StatusNotFound, typeNotFound, "Medidor no encontrado"},
	lecturadomain.ErrNotFound:    {http.StatusNotFound, typeNotFound, "Lectura no encontrada"},
	boletadomain.ErrNotFound:     {http.StatusNotFound, typeNotFound, "Boleta no encontrada"},
	pagodomain.ErrNotFound:       {http.StatusNotFound, typeNotFound, "Pago no encontrado"},
	pagodomain.ErrSinComprobante: {http.StatusNotFound, typeNotFound, "El pago no tiene comprobante"},
	storage.ErrNotFound:          {http.StatusNotFound, typeNotFound, "Archivo no encontrado"},

	ErrConflict:                              {http.StatusConflict, typeConflict, "Conflicto con el estado actual"},
	zonadomain.ErrValorEnUso:                 {http.StatusConflict, typeConflict, "Ya existe una zona con ese valor"},
	zonadomain.ErrZonaEnUso:                  {http.StatusConflict, typeConflict, "La zona tiene usuarios asignados"},
	usuariodomain.ErrPadronEnUso:             {http.StatusConflict, typeConflict, "El padrón ya está en uso"},
	usuariodomain.ErrEmailEnUso:              {http.StatusConflict, typeConflict, "El email ya está en uso"},
	usuariodomain.ErrTieneBoletas:            {http.StatusConflict, typeConflict, "El usuario tiene boletas emitidas"},
	medidordomain.ErrSerieEnUso:              {http.StatusConflict, typeConflict, "El número de serie ya está registrado"},
	medidordomain.ErrMedidorActivoExistente:  {http.StatusConflict, typeConflict, "El usuario ya tiene un medidor activo"},
	lecturadomain.ErrLecturaPeriodoExistente: {http.StatusConflict, typeConflict, "Ya existe una lectura para ese período"},
	boletadomain.ErrBoletaExistente:          {http.StatusConflict, typeConflict, "Ya existe una boleta para ese período"},
	estadodomain.ErrPlanActivo:               {http.StatusConflict, typeConflict, "El usuario ya tiene un plan de reconexión activo"},

	usuariodomain.ErrYaDadoDeBaja:         {http.StatusUnprocessableEntity, typeBusinessRule, "El servicio ya fue dado de baja"},
	medidordomain.ErrMedidorInactivo:      {http.StatusUnprocessableEntity, typeBusinessRule, "El medidor está dado de baja"},
	medidordomain.ErrUsuarioNoCliente:     {http.StatusUnprocessableEntity, typeBusinessRule, "El usuario no es un cliente"},
	lecturadomain.ErrMedidorInactivo:      {http.StatusUnprocessableEntity, typeBusinessRule, "El medidor está dado de baja"},
	lecturadomain.ErrLecturaMenorAnterior: {http.StatusUnprocessableEntity, typeBusinessRule, "La lectura actual no puede ser menor a la anterior"},
	boletadomain.ErrUsuarioNoElegible:     {http.StatusUnprocessableEntity, typeBusinessRule, "El usuario no puede recibir boletas"},
	boletadomain.ErrBoletaNoRecalculable:  {http.StatusUnprocessableEntity, typeBusinessRule, "Solo se pueden recalcular boletas pendientes"},
	tarifariodomain.ErrCargoExtraInactivo: {http.StatusUnprocessableEntity, typeBusinessRule, "El cargo extra está inactivo"},
	tarifariodomain.ErrUsuarioNoCliente:   {http.StatusUnprocessableEntity, typeBusinessRule, "El usuario no es un cliente"},
	pagodomain.ErrMontoInsuficiente:       {http.StatusUnprocessableEntity, typeBusinessRule, "El monto no cubre el total de la boleta"},
	pagodomain.ErrBoletaNoPagable:         {http.StatusUnprocessableEntity, typeBusinessRule, "La boleta no admite pagos en su estado actual"},
	pagodomain.ErrBoletaPagada:            {http.StatusUnprocessableEntity, typeBusinessRule, "La boleta ya está pagada"},
	pagodomain.ErrPagoNoPendiente:         {http.StatusUnprocessableEntity, typeBusinessRule, "El pago ya fue revisado"},
	pagodomain.ErrPagoNoAprobado:          {http.StatusUnprocessableEntity, typeBusinessRule, "El pago no está aprobado"},
	estadodomain.ErrUsuarioNoCliente:      {http.StatusUnprocessableEntity, typeBusinessRule, "El usuario no es un cliente"},
	estadodomain.ErrServicioDadoDeBaja:    {http.StatusUnprocessableEntity, typeBusinessRule, "El servicio del usuario fue dado de baja"},
	estadodomain.ErrDeudaPendiente:        {http.StatusUnprocessableEntity, typeBusinessRule, "El usuario tiene deuda pendiente"},
	importaciondomain.ErrArchivoMuyGrande: {http.StatusRequestEntityTooLarge, typeValidation, "El archivo supera el tamaño máximo permitido"},
	pagodomain.ErrComprobanteTamanio:      {http.StatusRequestEntityTooLarge, typeValidation, "El comprobante supera el tamaño máximo permitido"},
}

// validationMessages holds the human text for 400-class sentinels.
var validationMessages = map[error]string{
	ErrInvalidRequest:                       "Solicitud inválida",
	zonadomain.ErrInvalidID:                 "Identificador inválido",
	zonadomain.ErrInvalidNombre:             "El nombre es obligatorio",
	zonadomain.ErrInvalidValor:              "El valor de zona debe ser un entero positivo",
	usuariodomain.ErrInvalidID:              "Identificador inválido",
	usuariodomain.ErrInvalidNombre:          "El nombre es obligatorio",
	usuariodomain.ErrInvalidRol:             "Rol inválido",
	usuariodomain.ErrInvalidPadron:          "Padrón con formato inválido, se espera ZONA-NNNN",
	usuariodomain.ErrInvalidZona:            "Zona inválida",
	usuariodomain.ErrInvalidTipoCliente:     "Tipo de cliente inválido",
	usuariodomain.ErrInvalidEmail:           "Email inválido",
	usuariodomain.ErrInvalidPassword:        "La contraseña es obligatoria",
	usuariodomain.ErrInvalidMotivo:          "El motivo es obligatorio",
	authdomain.ErrInvalidPadron:             "Padrón con formato inválido, se espera ZONA-NNNN",
	medidordomain.ErrInvalidID:              "Identificador inválido",
	medidordomain.ErrInvalidUsuario:         "Usuario inválido",
	medidordomain.ErrInvalidSerie:           "El número de serie es obligatorio",
	medidordomain.ErrInvalidFecha:           "Fecha de instalación inválida",
	medidordomain.ErrInvalidLecturaInicial:  "La lectura inicial no puede ser negativa",
	medidordomain.ErrMotivoRequerido:        "El motivo de baja es obligatorio",
	lecturadomain.ErrInvalidID:              "Identificador inválido",
	lecturadomain.ErrInvalidMedidor:         "Medidor inválido",
	lecturadomain.ErrInvalidFecha:           "Fecha de lectura inválida",
	boletadomain.ErrInvalidID:               "Identificador inválido",
	boletadomain.ErrInvalidUsuario:          "Usuario inválido",
	boletadomain.ErrInvalidPeriodo:          "Período inválido",
	boletadomain.ErrInvalidEstado:           "Estado de boleta inválido",
	tarifariodomain.ErrInvalidNombre:        "El nombre es obligatorio",
	tarifariodomain.ErrInvalidTipoCliente:   "Tipo de cliente inválido",
	tarifariodomain.ErrInvalidMonto:         "Monto inválido",
	tarifariodomain.ErrConceptosVacios:      "El tarifario debe tener al menos un concepto fijo",
	tarifariodomain.ErrInvalidConfiguracion: "Configuración inválida",
	tarifariodomain.ErrInvalidCuotasMax:     "Cantidad máxima de cuotas inválida",
	tarifariodomain.ErrInvalidUsuario:       "Usuario inválido",
	tarifariodomain.ErrInvalidCargoExtra:    "Cargo extra inválido",
	tarifariodomain.ErrInvalidConcepto:      "El concepto es obligatorio",
	pagodomain.ErrInvalidID:                 "Identificador inválido",
	pagodomain.ErrInvalidBoleta:             "Boleta inválida",
	pagodomain.ErrInvalidMonto:              "El monto debe ser mayor a cero",
	pagodomain.ErrComprobanteRequerido:      "El comprobante es obligatorio",
	pagodomain.ErrComprobanteTipo:           "El comprobante debe ser una imagen o un PDF",
	pagodomain.ErrObservacionesRequeridas:   "Las observaciones son obligatorias para rechazar un pago",
	estadodomain.ErrInvalidUsuario:          "Usuario inválido",
	estadodomain.ErrInvalidCuotas:           "Cantidad de cuotas inválida",
	auditoriadomain.ErrInvalidModulo:        "Módulo inválido",
	auditoriadomain.ErrInvalidAccion:        "Acción inválida",
	auditoriadomain.ErrInvalidUsuario:       "Usuario inválido",
	auditoriadomain.ErrInvalidPageToken:     "Token de página inválido",
	auditoriadomain.ErrInvalidTimeRange:     "Rango de fechas inválido",
	estadisticasdomain.ErrInvalidMeses:      "Cantidad de meses inválida",
	estadisticasdomain.ErrInvalidLimit:      "Límite inválido",
	importaciondomain.ErrArchivoVacio:       "El archivo está vacío",
	storage.ErrInvalidName:                  "Nombre de archivo inválido",
}

// passthroughValidation carries errors whose text is already meant for the user.
var passthroughValidation = []error{
	calculo.ErrEscalasVacias,
	calculo.ErrConsumoNegativo,
	calculo.ErrEscalaInicial,
	calculo.ErrEscalaFinalAcotada,
	calculo.ErrEscalaRangoInvalido,
	calculo.ErrPrecioNegativo,
	calculo.ErrCuotasInvalidas,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload, Message: payload.Message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "Solicitud inválida")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// bindError turns a gin binding failure into field errors.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return invalidRequestError()
	}
	out := &ValidationErrors{}
	for _, fe := range verrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fe.Field(),
			Code:    fe.Tag(),
			Message: fe.Field() + " es obligatorio o inválido",
		})
	}
	return out
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    typeInternal,
			Message: "Error interno del servidor",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		message := "Datos inválidos"
		if len(vErr.Errors) == 1 && vErr.Errors[0].Message != "" {
			message = vErr.Errors[0].Message
		}
		return http.StatusBadRequest, errorPayload{
			Type:    typeValidation,
			Message: message,
			Errors:  vErr.Errors,
		}
	}

	var transicion *estadodomain.TransicionInvalidaError
	if errors.As(err, &transicion) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    typeBusinessRule,
			Message: transicion.Error(),
		}
	}

	for target, rule := range errorRules {
		if errors.Is(err, target) {
			return rule.status, errorPayload{Type: rule.kind, Message: rule.message}
		}
	}

	if code, message, ok := validationFor(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    typeValidation,
			Message: message,
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: message,
				},
			},
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    typeInternal,
		Message: "Error interno del servidor",
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationFor(err error) (string, string, bool) {
	for target, message := range validationMessages {
		if errors.Is(err, target) {
			return target.Error(), message, true
		}
	}
	for _, target := range passthroughValidation {
		if errors.Is(err, target) {
			return "invalid_tarifario", target.Error(), true
		}
	}
	// Wrapped import errors carry the offending detail after the sentinel.
	if errors.Is(err, importaciondomain.ErrEncabezadosFaltantes) {
		detail := strings.TrimSpace(strings.TrimPrefix(err.Error(), importaciondomain.ErrEncabezadosFaltantes.Error()+":"))
		return importaciondomain.ErrEncabezadosFaltantes.Error(), "Faltan columnas obligatorias: " + detail, true
	}
	if errors.Is(err, importaciondomain.ErrCSVInvalido) {
		return importaciondomain.ErrCSVInvalido.Error(), "El archivo CSV no es válido", true
	}
	return "", "", false
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog feeds the request logger.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	if err == nil {
		return payload.Type, ""
	}
	return payload.Type, err.Error()
}
