package currency

// Approximate rates to USD, used when no date is available or every rate
// provider failed. Values are coarse by design; each use is surfaced as a
// data-quality diagnostic rather than silently accepted.
var staticRatesToUSD = map[string]float64{
	"USD": 1.0,
	"EUR": 1.09,
	"GBP": 1.27,
	"JPY": 0.0067,
	"CNY": 0.14,
	"AUD": 0.66,
	"CAD": 0.73,
	"CHF": 1.13,
	"HKD": 0.13,
	"SGD": 0.74,
	"SEK": 0.095,
	"NOK": 0.094,
	"DKK": 0.15,
	"KRW": 0.00075,
	"TWD": 0.031,
	"INR": 0.012,
	"IDR": 0.000063,
	"MYR": 0.21,
	"THB": 0.028,
	"VND": 0.000041,
	"PHP": 0.017,
	"NZD": 0.61,
	"MXN": 0.058,
	"BRL": 0.19,
	"CLP": 0.0011,
	"COP": 0.00025,
	"PEN": 0.27,
	"ZAR": 0.054,
	"NGN": 0.00065,
	"EGP": 0.021,
	"TRY": 0.031,
	"ILS": 0.27,
	"AED": 0.27,
	"SAR": 0.27,
	"QAR": 0.27,
	"PLN": 0.25,
	"CZK": 0.043,
	"HUF": 0.0027,
	"RON": 0.22,
	"RUB": 0.011,
	"PKR": 0.0036,
}
