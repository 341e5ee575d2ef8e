package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Custom tags
const (
	TagLoginID        = "loginid"
	TagPasswordPolicy = "pwdpolicy"
)

// Login ID length bounds, inclusive.
const (
	LoginIDMin = 6
	LoginIDMax = 12
)

// Character classes of the password policy.
var (
	reLower  = regexp.MustCompile(`[a-z]`)
	reUpper  = regexp.MustCompile(`[A-Z]`)
	reSymbol = regexp.MustCompile(`[\W_]`)
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers the account tags.
func Init(passwordMinLength int) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v, passwordMinLength)
	}
}

// New returns a standalone validator with the account tags registered.
func New(passwordMinLength int) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	Register(v, passwordMinLength)
	return v
}

// Register adds json tag naming, the loginid alias and the pwdpolicy rule to v.
func Register(v *validator.Validate, passwordMinLength int) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias(TagLoginID, "min="+strconv.Itoa(LoginIDMin)+",max="+strconv.Itoa(LoginIDMax))
	_ = v.RegisterValidation(TagPasswordPolicy, func(fl validator.FieldLevel) bool {
		return PasswordMeetsPolicy(fl.Field().String(), passwordMinLength)
	})
}

// PasswordMeetsPolicy reports whether pwd has a lowercase letter, an
// uppercase letter, a symbol (non-word character or underscore) and at least
// minLength characters.
func PasswordMeetsPolicy(pwd string, minLength int) bool {
	if utf8.RuneCountInString(pwd) < minLength {
		return false
	}
	return reLower.MatchString(pwd) && reUpper.MatchString(pwd) && reSymbol.MatchString(pwd)
}
