package core

import (
	"dario.cat/mergo"
	"github.com/mohae/deepcopy"
)

// -----------------------------------------------------------------------------
// Input
// -----------------------------------------------------------------------------

// Input is the raw JSON payload submitted for an engine run. Keys are the
// field names of the engine's declared input schema plus the shared base
// fields.
type Input map[string]any

func NewInput(data map[string]any) Input {
	if data == nil {
		return Input{}
	}
	return Input(data)
}

func (i *Input) AsMap() map[string]any {
	if i == nil {
		return nil
	}
	m := make(map[string]any, len(*i))
	for k, v := range *i {
		m[k] = v
	}
	return m
}

func (i *Input) Prop(key string) any {
	if i == nil {
		return nil
	}
	return (*i)[key]
}

func (i *Input) Set(key string, value any) {
	if i == nil {
		return
	}
	(*i)[key] = value
}

// Merge combines two inputs; values from other win on conflict, slices
// append. The receiver is not modified.
func (i *Input) Merge(other *Input) (*Input, error) {
	if i == nil {
		return other, nil
	}
	if other == nil {
		return i, nil
	}
	merged, err := i.Clone()
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(merged, *other, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return nil, err
	}
	return merged, nil
}

func (i *Input) Clone() (*Input, error) {
	if i == nil {
		return nil, nil
	}
	copied := deepcopy.Copy(*i).(Input)
	return &copied, nil
}

// -----------------------------------------------------------------------------
// Output
// -----------------------------------------------------------------------------

// Output is the raw result of an engine Calculate call, prior to envelope
// assembly.
type Output map[string]any

func (o *Output) AsMap() map[string]any {
	if o == nil {
		return nil
	}
	m := make(map[string]any, len(*o))
	for k, v := range *o {
		m[k] = v
	}
	return m
}

func (o *Output) Prop(key string) any {
	if o == nil {
		return nil
	}
	return (*o)[key]
}

func (o *Output) Set(key string, value any) {
	if o == nil {
		return
	}
	(*o)[key] = value
}

// Merge overlays other onto a copy of the receiver; other wins on conflict.
func (o *Output) Merge(other Output) (Output, error) {
	if o == nil {
		return other, nil
	}
	merged := Output(deepcopy.Copy(*o).(Output))
	if err := mergo.Merge(&merged, other, mergo.WithOverride); err != nil {
		return nil, err
	}
	return merged, nil
}

func (o *Output) Clone() (*Output, error) {
	if o == nil {
		return nil, nil
	}
	copied := deepcopy.Copy(*o).(Output)
	return &copied, nil
}
