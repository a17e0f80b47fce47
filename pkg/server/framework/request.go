package framework

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/go-playground/validator.v9"
	entranslations "gopkg.in/go-playground/validator.v9/translations/en"
)

// validate holds the settings and caches for validating request payloads.
var validate *validator.Validate

// translator is a cache of locale and translation information.
var translator *ut.UniversalTranslator

func init() {
	validate = validator.New()

	// english is both the fallback and the only supported locale
	enLocale := en.New()
	translator = ut.New(enLocale, enLocale)

	lang, _ := translator.GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, lang)

	// use JSON tag names for errors instead of Go struct field names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Decode reads an HTTP request body looking for a JSON document.
// The body is decoded into the value provided. Unknown fields are rejected.
func Decode(r *http.Request, val any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return NewRequestError(errors.New("request body is empty"), http.StatusBadRequest)
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(val); err != nil {
		return NewRequestError(err, http.StatusBadRequest)
	}
	return nil
}

// ValidateRequest checks the validation tags of a decoded request. Field errors are translated
// into english and returned as a SafeError.
func ValidateRequest(request any) error {
	err := validate.Struct(request)
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) {
		return err
	}

	lang, _ := translator.GetTranslator("en")
	fieldErrors := make([]FieldError, 0, len(vErrors))
	for _, vError := range vErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field: vError.Namespace(),
			Error: vError.Translate(lang),
		})
	}
	return &SafeError{
		Err:        errors.New("field validation error"),
		StatusCode: http.StatusBadRequest,
		Fields:     fieldErrors,
	}
}

// GetParam is a utility to get a path parameter from context, nil if not found
func GetParam(c *gin.Context, param string) *string {
	got := c.Param(param)
	if got == "" {
		return nil
	}
	return &got
}

// GetQueryValue is a utility to get a parameter value from the query string, nil if not found
func GetQueryValue(c *gin.Context, param string) *string {
	got, ok := c.GetQuery(param)
	if !ok || got == "" {
		return nil
	}
	return &got
}
