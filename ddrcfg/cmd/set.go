package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/ddrconfig/ddr/option"
	"github.com/sarchlab/ddrconfig/ddr/param"
)

// ErrBadEdit is returned when an option edit cannot be understood.
var ErrBadEdit = errors.New("bad option edit")

// optionEdit changes one field of the options of one controller.
type optionEdit struct {
	controller int
	key        string
	apply      func(o *param.MemCtlOptions) error
}

// parseOptionEdit parses an edit in the form ctrlN.key=value.
func parseOptionEdit(expr string) (optionEdit, error) {
	target, value, found := strings.Cut(expr, "=")
	if !found {
		return optionEdit{}, fmt.Errorf("%w: %q has no value", ErrBadEdit, expr)
	}

	ctrlName, key, found := strings.Cut(target, ".")
	if !found || !strings.HasPrefix(ctrlName, "ctrl") {
		return optionEdit{}, fmt.Errorf("%w: %q does not name a controller",
			ErrBadEdit, expr)
	}

	ctrl, err := strconv.Atoi(strings.TrimPrefix(ctrlName, "ctrl"))
	if err != nil || ctrl < 0 {
		return optionEdit{}, fmt.Errorf("%w: bad controller in %q",
			ErrBadEdit, expr)
	}

	setter, ok := optionSetters[key]
	if !ok {
		return optionEdit{}, fmt.Errorf("%w: unknown option %q", ErrBadEdit, key)
	}

	return optionEdit{
		controller: ctrl,
		key:        key,
		apply: func(o *param.MemCtlOptions) error {
			return setter(o, value)
		},
	}, nil
}

var optionSetters = map[string]func(o *param.MemCtlOptions, v string) error{
	"memctl_interleaving": func(o *param.MemCtlOptions, v string) error {
		return setBool(&o.MemctlInterleaving, v)
	},
	"memctl_interleaving_mode": func(o *param.MemCtlOptions, v string) error {
		mode, err := option.ParseInterleavingMode(v)
		o.MemctlInterleavingMode = mode
		return err
	},
	"ba_intlv_ctl": func(o *param.MemCtlOptions, v string) error {
		pattern, err := option.ParseBankInterleaving(v)
		o.BaIntlvCtl = pattern
		return err
	},
	"data_bus_width": func(o *param.MemCtlOptions, v string) error {
		switch v {
		case "64":
			o.DataBusWidth = param.DataBusWidth64
		case "32":
			o.DataBusWidth = param.DataBusWidth32
		case "16":
			o.DataBusWidth = param.DataBusWidth16
		default:
			return fmt.Errorf("%w: data bus width %q", ErrBadEdit, v)
		}
		return nil
	},
	"ecc": func(o *param.MemCtlOptions, v string) error {
		return setBool(&o.ECCMode, v)
	},
	"2t": func(o *param.MemCtlOptions, v string) error {
		return setBool(&o.TwoTEn, v)
	},
	"3t": func(o *param.MemCtlOptions, v string) error {
		return setBool(&o.ThreeTEn, v)
	},
	"cas_latency": func(o *param.MemCtlOptions, v string) error {
		o.CASLatencyOverride = true
		return setUint(&o.CASLatencyOverrideValue, v)
	},
	"additive_latency": func(o *param.MemCtlOptions, v string) error {
		o.AdditiveLatencyOverride = true
		return setUint(&o.AdditiveLatencyOverrideValue, v)
	},
}

func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadEdit, err)
	}

	*dst = b

	return nil
}

func setUint(dst *uint, v string) error {
	n, err := strconv.ParseUint(v, 0, 32)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadEdit, err)
	}

	*dst = uint(n)

	return nil
}

func applyOptionEdits(opts []param.MemCtlOptions, edits []optionEdit) error {
	for _, e := range edits {
		if e.controller >= len(opts) {
			return fmt.Errorf("%w: no controller %d", ErrBadEdit, e.controller)
		}

		err := e.apply(&opts[e.controller])
		if err != nil {
			return fmt.Errorf("ctrl%d.%s: %w", e.controller, e.key, err)
		}
	}

	return nil
}
