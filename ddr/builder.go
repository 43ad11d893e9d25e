package ddr

import (
	"log"

	"github.com/sarchlab/ddrconfig/ddr/addressing"
	"github.com/sarchlab/ddrconfig/ddr/commontiming"
	"github.com/sarchlab/ddrconfig/ddr/hooking"
	"github.com/sarchlab/ddrconfig/ddr/option"
	"github.com/sarchlab/ddrconfig/ddr/param"
	"github.com/sarchlab/ddrconfig/ddr/regs"
	"github.com/sarchlab/ddrconfig/ddr/spd"
)

// Builder can build pipelines.
type Builder struct {
	layout    param.Layout
	reader    spd.Reader
	decoder   spd.Decoder
	reducer   commontiming.Reducer
	populator option.Populator
	encoder   regs.Encoder
	logger    *log.Logger
	hooks     []hooking.Hook
}

// MakeBuilder creates a builder with default configuration. A reader must be
// set before building.
func MakeBuilder() Builder {
	layout := param.DefaultLayout()

	return Builder{
		layout:  layout,
		decoder: spd.AutoDecoder{},
		reducer: commontiming.LowestCommon{},
		populator: option.BoardPopulator{
			Policy:         option.DefaultPolicy(),
			NumControllers: layout.NumControllers,
		},
		encoder: regs.NewDDR3Encoder(0),
		logger:  log.Default(),
	}
}

// WithLayout sets the number of controllers and slots. The default board
// populator follows the new controller count.
func (b Builder) WithLayout(layout param.Layout) Builder {
	b.layout = layout

	if p, ok := b.populator.(option.BoardPopulator); ok {
		p.NumControllers = layout.NumControllers
		b.populator = p
	}

	return b
}

// WithReader sets where the SPDs are read from.
func (b Builder) WithReader(reader spd.Reader) Builder {
	b.reader = reader
	return b
}

// WithDecoder sets the SPD decoder.
func (b Builder) WithDecoder(decoder spd.Decoder) Builder {
	b.decoder = decoder
	return b
}

// WithReducer sets how the common timing parameters are computed.
func (b Builder) WithReducer(reducer commontiming.Reducer) Builder {
	b.reducer = reducer
	return b
}

// WithPopulator sets how the controller options are produced.
func (b Builder) WithPopulator(populator option.Populator) Builder {
	b.populator = populator
	return b
}

// WithPolicy uses a board populator with the given policy.
func (b Builder) WithPolicy(policy option.Policy) Builder {
	b.populator = option.BoardPopulator{
		Policy:         policy,
		NumControllers: b.layout.NumControllers,
	}

	return b
}

// WithEncoder sets the register encoder of the controller generation.
func (b Builder) WithEncoder(encoder regs.Encoder) Builder {
	b.encoder = encoder
	return b
}

// WithLogger sets the logger that warnings are printed to.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithAdditionalHooks adds hooks to the pipeline.
func (b Builder) WithAdditionalHooks(hooks ...hooking.Hook) Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// Build creates a pipeline.
func (b Builder) Build() *Pipeline {
	b.layout.MustBeValid()

	if b.reader == nil {
		panic("SPD reader is not set")
	}

	if bp, ok := b.populator.(option.BoardPopulator); ok && bp.Logger == nil {
		bp.Logger = b.logger
		b.populator = bp
	}

	p := &Pipeline{
		layout:    b.layout,
		reader:    b.reader,
		decoder:   b.decoder,
		reducer:   b.reducer,
		populator: b.populator,
		encoder:   b.encoder,
		engine:    addressing.Engine{Logger: b.logger},
		logger:    b.logger,
	}

	for _, h := range b.hooks {
		p.AcceptHook(h)
	}

	return p
}
