package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSpecs(t *testing.T) {
	t.Run("recognized keys lift into fields", func(t *testing.T) {
		specs := ParseSpecs(`{"body_style":"sedan","horsepower":301,"engine":"3.5L V6","fuel_economy":"10.2 L/100km","transmission":"automatic","seats":5}`)

		assert.Equal(t, "sedan", specs.BodyStyle)
		assert.Equal(t, "301", specs.Horsepower)
		assert.Equal(t, "3.5L V6", specs.Engine)
		assert.Equal(t, "10.2 L/100km", specs.FuelEconomy)
		assert.Equal(t, "automatic", specs.Transmission)
		assert.Equal(t, "5", specs.Seats)
	})

	t.Run("key variants collapse", func(t *testing.T) {
		assert.Equal(t, "suv", ParseSpecs(`{"bodyType":"suv"}`).BodyStyle)
		assert.Equal(t, "suv", ParseSpecs(`{"Body Style":"suv"}`).BodyStyle)
		assert.Equal(t, "420", ParseSpecs(`{"hp":420}`).Horsepower)
		assert.Equal(t, "8.1 L/100km", ParseSpecs(`{"mileage":"8.1 L/100km"}`).FuelEconomy)
	})

	t.Run("unknown keys land in Extra", func(t *testing.T) {
		specs := ParseSpecs(`{"sunroof":true,"warranty":"3 years"}`)
		assert.Equal(t, "true", specs.Extra["sunroof"])
		assert.Equal(t, "3 years", specs.Extra["warranty"])
	})

	t.Run("later blobs override earlier ones", func(t *testing.T) {
		specs := ParseSpecs(`{"engine":"2.0L"}`, `{"engine":"2.0L turbo"}`)
		assert.Equal(t, "2.0L turbo", specs.Engine)
	})

	t.Run("malformed blobs are skipped", func(t *testing.T) {
		specs := ParseSpecs(`not json at all`, `{"engine":"V8"}`, ``)
		assert.Equal(t, "V8", specs.Engine)
	})

	t.Run("empty input is zero", func(t *testing.T) {
		assert.True(t, ParseSpecs().IsZero())
		assert.True(t, ParseSpecs("", "  ").IsZero())
	})
}

func TestEntrySearchText(t *testing.T) {
	e := Entry{
		Make:  "Toyota",
		Model: "Camry",
		Specs: Specs{BodyStyle: "Sedan", Engine: "3.5L V6"},
	}

	text := e.SearchText()
	assert.Contains(t, text, "toyota")
	assert.Contains(t, text, "camry")
	assert.Contains(t, text, "sedan")
	assert.Contains(t, text, "3.5l v6")
	assert.NotContains(t, text, "Toyota", "search text must be lower-cased")
}

func TestEntryDisplayName(t *testing.T) {
	assert.Equal(t, "Honda Accord", Entry{Make: "Honda", Model: "Accord"}.DisplayName())
	assert.Equal(t, "Tesla", Entry{Make: "Tesla"}.DisplayName())
}
