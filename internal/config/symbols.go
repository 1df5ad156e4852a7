package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"

	"cfdprep/pkg/contracts/domain"
)

// SymbolConfig is the trading-window definition of one instrument
type SymbolConfig struct {
	Symbol        string `json:"symbol" validate:"required,max=64,excludesall=/\\"`
	RawFile       string `json:"raw_file" validate:"required"`
	DataStartTime string `json:"data_start_time" validate:"required,hhmm"`
	DataEndTime   string `json:"data_end_time" validate:"required,hhmm"`
}

// Window returns the parsed trading window
func (s SymbolConfig) Window() (domain.TradingWindow, error) {
	return domain.NewTradingWindow(s.DataStartTime, s.DataEndTime)
}

type symbolList struct {
	Symbols []SymbolConfig `validate:"min=1,unique=Symbol,dive"`
}

// LoadSymbols reads and validates the symbol list from a JSON file
func LoadSymbols(path string) ([]SymbolConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbols file: %w", err)
	}
	defer f.Close()

	symbols, err := ParseSymbols(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return symbols, nil
}

// ParseSymbols decodes a JSON array of symbol configs and validates it:
// required fields, HH:MM times, end not before start, unique symbols.
func ParseSymbols(r io.Reader) ([]SymbolConfig, error) {
	var list symbolList
	if err := json.NewDecoder(r).Decode(&list.Symbols); err != nil {
		return nil, fmt.Errorf("failed to decode symbols: %w", err)
	}

	if err := newSymbolValidator().Struct(list); err != nil {
		return nil, formatValidationErrors(err)
	}
	return list.Symbols, nil
}

// FilterSymbols keeps the configs whose symbol is listed in only, in config order.
// An empty filter keeps everything.
func FilterSymbols(symbols []SymbolConfig, only []string) []SymbolConfig {
	if len(only) == 0 {
		return symbols
	}
	keep := make(map[string]bool, len(only))
	for _, s := range only {
		if s = strings.TrimSpace(s); s != "" {
			keep[strings.ToUpper(s)] = true
		}
	}
	var out []SymbolConfig
	for _, s := range symbols {
		if keep[strings.ToUpper(s.Symbol)] {
			out = append(out, s)
		}
	}
	return out
}

func newSymbolValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("hhmm", isClock)
	v.RegisterStructValidation(validateWindowOrder, SymbolConfig{})
	return v
}

func isClock(fl validator.FieldLevel) bool {
	_, err := domain.ParseClock(fl.Field().String())
	return err == nil
}

func validateWindowOrder(sl validator.StructLevel) {
	s := sl.Current().Interface().(SymbolConfig)
	start, err1 := domain.ParseClock(s.DataStartTime)
	end, err2 := domain.ParseClock(s.DataEndTime)
	if err1 != nil || err2 != nil {
		return
	}
	if end < start {
		sl.ReportError(s.DataEndTime, "DataEndTime", "DataEndTime", "gtefield", "DataStartTime")
	}
}
