package configstore

import (
	"encoding/json"
	"maps"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Snapshot captures cfg as plain JSON data. cfg is a pointer to a struct or a
// map[string]any. Structural fields, base keys, funcs and components are
// left out.
func Snapshot(cfg any) (map[string]any, error) {
	var raw map[string]any
	switch c := cfg.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		raw = maps.Clone(c)
	default:
		if err := mapstructure.Decode(cfg, &raw); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigSnapshotFailed.Error()), "type", reflect.TypeOf(cfg).String())
		}
	}

	pruned, _ := prune(raw).(map[string]any)
	if pruned == nil {
		pruned = map[string]any{}
	}
	for key := range pruned {
		if domain.IsBaseConfigKey(key) {
			delete(pruned, key)
		}
	}

	data, err := json.Marshal(pruned)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigSnapshotFailed.Error())
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, zerr.Wrap(err, domain.ErrConfigSnapshotFailed.Error())
	}
	return out, nil
}

// prune drops components, funcs and chans at every depth.
func prune(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			if domain.IsComponentValue(item) {
				continue
			}
			out[k] = prune(item)
		}
		return out
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			if domain.IsComponentValue(item) {
				continue
			}
			out = append(out, prune(item))
		}
		return out
	default:
		return v
	}
}

// Merge overlays patch onto base. Nested maps merge key by key; any other
// value in patch, including null, replaces the base value.
func Merge(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = clone(v)
	}
	for k, v := range patch {
		bm, baseIsMap := out[k].(map[string]any)
		pm, patchIsMap := v.(map[string]any)
		if baseIsMap && patchIsMap {
			out[k] = Merge(bm, pm)
			continue
		}
		out[k] = clone(v)
	}
	return out
}

func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = clone(item)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = clone(item)
		}
		return out
	default:
		return v
	}
}

// Apply writes data into cfg. A map config has its data keys replaced while
// base keys and components stay; a struct config is decoded with fields
// zeroed first.
func Apply(cfg any, data map[string]any) error {
	if m, ok := cfg.(map[string]any); ok {
		for k := range m {
			if !domain.IsBaseConfigKey(k) && !domain.IsComponentValue(m[k]) {
				delete(m, k)
			}
		}
		for k, v := range data {
			m[k] = clone(v)
		}
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     cfg,
		ZeroFields: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigApplyFailed.Error())
	}
	if err := decoder.Decode(clone(data)); err != nil {
		return zerr.Wrap(err, domain.ErrConfigApplyFailed.Error())
	}
	return nil
}
