package trip

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/NERVsystems/tripcarbon/pkg/decision"
	"github.com/NERVsystems/tripcarbon/pkg/timeframe"
)

// ErrInvalidTrip is returned for trips whose fields fail validation
var ErrInvalidTrip = errors.New("invalid trip")

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Trip is what a client knows about one automobile trip. Every field is
// optional; the model fills in what is missing.
type Trip struct {
	Make        string `json:"make,omitempty" yaml:"make"`
	Model       string `json:"model,omitempty" yaml:"model"`
	Year        int    `json:"year,omitempty" yaml:"year" validate:"omitempty,gte=1900,lte=2100"`
	FuelCode    string `json:"fuel_code,omitempty" yaml:"fuel_code" validate:"omitempty,max=4"`
	SizeClass   string `json:"size_class,omitempty" yaml:"size_class"`
	CountryCode string `json:"country,omitempty" yaml:"country" validate:"omitempty,len=2,alpha"`
	Hybrid      *bool  `json:"hybrid,omitempty" yaml:"hybrid"`
	Origin      string `json:"origin,omitempty" yaml:"origin"`
	Destination string `json:"destination,omitempty" yaml:"destination"`
	// Duration is seconds
	Duration float64 `json:"duration,omitempty" yaml:"duration" validate:"gte=0"`
	// Date is YYYY-MM-DD; defaults to the start of the timeframe
	Date string `json:"date,omitempty" yaml:"date" validate:"omitempty,datetime=2006-01-02"`

	// Known intermediate quantities short-circuit their committees
	Distance       *float64 `json:"distance,omitempty" yaml:"distance" validate:"omitempty,gte=0"`
	Speed          *float64 `json:"speed,omitempty" yaml:"speed" validate:"omitempty,gt=0"`
	FuelEfficiency *float64 `json:"fuel_efficiency,omitempty" yaml:"fuel_efficiency" validate:"omitempty,gt=0"`
	Urbanity       *float64 `json:"urbanity,omitempty" yaml:"urbanity" validate:"omitempty,gte=0,lte=1"`
}

// Validate checks field formats and ranges
func (t Trip) Validate() error {
	err := validate.Struct(t)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("%w: %v", ErrInvalidTrip, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidTrip, strings.Join(msgs, "; "))
}

// Characteristics converts the trip into the client characteristics the
// engine resolves against. Empty fields are left out.
func (t Trip) Characteristics() decision.Characteristics {
	values := map[string]any{}
	setString := func(name, v string) {
		if v = strings.TrimSpace(v); v != "" {
			values[name] = v
		}
	}
	setString(MakeName, t.Make)
	setString(ModelName, t.Model)
	setString(FuelCode, t.FuelCode)
	setString(SizeClassName, t.SizeClass)
	setString(CountryCode, strings.ToUpper(t.CountryCode))
	setString(Origin, t.Origin)
	setString(Destination, t.Destination)

	if t.Year > 0 {
		values[Year] = t.Year
	}
	if t.Hybrid != nil {
		values[Hybridity] = *t.Hybrid
	}
	if t.Duration > 0 {
		values[Duration] = t.Duration
	}
	if t.Date != "" {
		if d, err := time.Parse(timeframe.DateLayout, t.Date); err == nil {
			values[Date] = d
		}
	}
	if t.Distance != nil {
		values[Distance] = *t.Distance
	}
	if t.Speed != nil {
		values[Speed] = *t.Speed
	}
	if t.FuelEfficiency != nil {
		values[FuelEfficiency] = *t.FuelEfficiency
	}
	if t.Urbanity != nil {
		values[Urbanity] = *t.Urbanity
	}
	return decision.NewCharacteristics(values)
}
