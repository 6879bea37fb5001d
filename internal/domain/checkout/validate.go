package checkout

import (
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/shipping"
)

// FieldErrors maps a form field to a human-readable problem. It is returned
// as an error when submitted step data does not validate; the step is then
// marked invalid and the shopper can correct and resubmit.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, k := range keys {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteString(" ")
		b.WriteString(fe[k])
	}
	return b.String()
}

func (fe FieldErrors) merge(prefix string, other FieldErrors) {
	for k, v := range other {
		fe[prefix+k] = v
	}
}

var (
	postalCodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phoneRe      = regexp.MustCompile(`^(\+91[\-\s]?)?[6-9][0-9]{9}$`)
	cardNumberRe = regexp.MustCompile(`^[0-9][0-9 \-]{11,22}[0-9]$`)
	expiryRe     = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
)

// Validator checks step form data.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// NewValidator creates a Validator. now is used for card expiry checks.
func NewValidator(now func() time.Time) *Validator {
	val := &Validator{v: validator.New(validator.WithRequiredStructEnabled()), now: now}

	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(val.v, "postalcode", func(fl validator.FieldLevel) bool {
		return postalCodeRe.MatchString(fl.Field().String())
	})
	mustRegister(val.v, "phone", func(fl validator.FieldLevel) bool {
		return phoneRe.MatchString(fl.Field().String())
	})
	mustRegister(val.v, "cardnumber", func(fl validator.FieldLevel) bool {
		return ValidCardNumber(fl.Field().String())
	})
	mustRegister(val.v, "cardexpiry", func(fl validator.FieldLevel) bool {
		return ValidExpiry(fl.Field().String(), val.now())
	})

	return val
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Address validates a postal address.
func (v *Validator) Address(a shipping.Address) FieldErrors {
	return v.check(a)
}

// Card validates card details.
func (v *Validator) Card(c payment.Card) FieldErrors {
	return v.check(c)
}

func (v *Validator) check(s any) FieldErrors {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return FieldErrors{"_": err.Error()}
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	if fe.Field() == "cvv" && fe.Tag() != "required" {
		return "must be 3 or 4 digits"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "postalcode":
		return "must be a 6-digit postal code"
	case "phone":
		return "must be a valid 10-digit phone number"
	case "cardnumber":
		return "must be a valid card number"
	case "cardexpiry":
		return "must be a current MM/YY expiry date"
	case "iso3166_1_alpha2":
		return "must be a 2-letter country code"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// ValidCardNumber reports whether number is 13 to 19 digits (spaces and
// dashes allowed as separators) with a valid Luhn checksum.
func ValidCardNumber(number string) bool {
	if !cardNumberRe.MatchString(number) {
		return false
	}

	digits := make([]int, 0, len(number))
	for i := range len(number) {
		if ch := number[i]; ch >= '0' && ch <= '9' {
			digits = append(digits, int(ch-'0'))
		}
	}
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// ValidExpiry reports whether expiry (MM/YY) is the current month or later.
func ValidExpiry(expiry string, now time.Time) bool {
	m := expiryRe.FindStringSubmatch(expiry)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[2])
	year += 2000

	now = now.UTC()
	if year != now.Year() {
		return year > now.Year()
	}
	return month >= int(now.Month())
}
