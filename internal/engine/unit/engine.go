package unit

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // span attribute names
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Generation modes reported to metrics.
const (
	modeFull     = "full"
	modePartial  = "partial"
	modeFallback = "fallback"
)

// Hash returns the unit's current content hash. The boolean is false when the
// unit, or any of its dependencies, is uncacheable.
func (u *Unit) Hash(ctx context.Context) (domain.ContentHash, bool, error) {
	if err := u.acquire(ctx); err != nil {
		return domain.ContentHash{}, false, err
	}
	defer u.release()

	return u.hash(ctx)
}

func (u *Unit) hash(ctx context.Context) (domain.ContentHash, bool, error) {
	ctx, span := u.rt.Tracer.Start(ctx, "unit.hash")
	defer span.End()
	span.SetAttribute(telemetry.UnitIDAttribute, u.id)

	if err := u.ensureConfig(ctx); err != nil {
		span.RecordError(err)
		return domain.ContentHash{}, false, err
	}

	var h domain.ContentHash
	if u.caps.hash != nil {
		own, ok, err := u.caps.hash.GenerateHash(ctx)
		if err != nil {
			err = zerr.With(zerr.Wrap(err, domain.ErrHashFailed.Error()), "unit_id", u.id)
			span.RecordError(err)
			return domain.ContentHash{}, false, err
		}
		if !ok {
			span.SetAttribute("unit.cacheable", false)
			return domain.ContentHash{}, false, nil
		}
		h = own
	} else {
		h = domain.HashString(u.kind).Compose(domain.HashConfig(u.Config()))
	}

	for _, dep := range u.deps {
		dh, ok, err := dep.Hash(ctx)
		if err != nil {
			return domain.ContentHash{}, false, zerr.With(err, "dependent", u.id)
		}
		if !ok {
			span.SetAttribute("unit.cacheable", false)
			return domain.ContentHash{}, false, nil
		}
		h = h.Compose(dh)
	}

	span.SetAttribute("unit.hash", h.Hex())
	return h, true, nil
}

// Source returns every blob of the unit, from the cache when the stored hash
// matches the current one.
func (u *Unit) Source(ctx context.Context) (*domain.Source, error) {
	ctx, span := u.rt.Tracer.Start(ctx, "unit.source")
	defer span.End()
	span.SetAttribute(telemetry.UnitIDAttribute, u.id)

	if err := u.acquire(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	defer u.release()

	src, err := u.source(ctx)
	if err != nil {
		span.RecordError(err)
	}
	return src, err
}

func (u *Unit) source(ctx context.Context) (*domain.Source, error) {
	hash, ok, err := u.hash(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		src, _, err := u.generate(ctx, hash)
		return src, err
	}

	scope := u.scope()
	entry, found, err := u.rt.Cache.Lookup(ctx, scope, hash)
	if err != nil {
		return nil, err
	}
	if found && entry.Complete {
		return entry, nil
	}
	if found {
		src, done, err := u.complete(ctx, hash, entry)
		if err != nil || done {
			return src, err
		}
		if err := u.rt.Cache.Discard(ctx, scope, hash); err != nil {
			return nil, err
		}
	}
	return u.generateAndStore(ctx, hash)
}

// complete fills an incomplete entry with the blobs it lacks. done is false
// when the full id set is unknown or an id cannot be produced alone; the
// caller then discards the entry and regenerates.
func (u *Unit) complete(
	ctx context.Context, hash domain.ContentHash, entry *domain.Source,
) (*domain.Source, bool, error) {
	if u.caps.list == nil || u.caps.partial == nil {
		return nil, false, nil
	}
	ids, ok, err := u.caps.list.List(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	scope := u.scope()
	for _, id := range ids {
		if entry.Has(id) {
			continue
		}
		blob, ok, err := u.generatePartial(ctx, id, hash)
		if err != nil {
			src, err := u.fallback(ctx, hash, err)
			return src, true, err
		}
		if !ok {
			return nil, false, nil
		}
		if err := u.rt.Cache.MergePartial(ctx, scope, hash, blob); err != nil {
			return nil, false, err
		}
		entry.Upsert(blob)
	}

	if err := u.rt.Cache.MarkComplete(ctx, scope, hash); err != nil {
		return nil, false, err
	}
	entry.Complete = true
	return entry, true, nil
}

// PartialSource returns the single blob id. The boolean is false when the
// unit does not produce it.
func (u *Unit) PartialSource(ctx context.Context, id string) (*domain.Source, bool, error) {
	ctx, span := u.rt.Tracer.Start(ctx, "unit.partial_source")
	defer span.End()
	span.SetAttribute(telemetry.UnitIDAttribute, u.id)
	span.SetAttribute("unit.blob", id)

	if err := u.acquire(ctx); err != nil {
		span.RecordError(err)
		return nil, false, err
	}
	defer u.release()

	src, ok, err := u.partialSource(ctx, id)
	if err != nil {
		span.RecordError(err)
	}
	return src, ok, err
}

func (u *Unit) partialSource(ctx context.Context, id string) (*domain.Source, bool, error) {
	hash, ok, err := u.hash(ctx)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		src, _, err := u.generate(ctx, hash)
		if err != nil {
			return nil, false, err
		}
		filtered, ok := src.Filter(id)
		return filtered, ok, nil
	}

	scope := u.scope()
	entry, found, err := u.rt.Cache.Lookup(ctx, scope, hash)
	if err != nil {
		return nil, false, err
	}
	if found && (entry.Complete || entry.Has(id)) {
		filtered, ok := entry.Filter(id)
		return filtered, ok, nil
	}

	if u.caps.partial != nil {
		blob, ok, err := u.generatePartial(ctx, id, hash)
		if err != nil {
			src, err := u.fallback(ctx, hash, err)
			if err != nil {
				return nil, false, err
			}
			filtered, ok := src.Filter(id)
			return filtered, ok, nil
		}
		if ok {
			if err := u.rt.Cache.MergePartial(ctx, scope, hash, blob); err != nil {
				return nil, false, err
			}
			return domain.NewSource([]domain.Blob{blob}, hash, false), true, nil
		}
	}

	src, err := u.generateAndStore(ctx, hash)
	if err != nil {
		return nil, false, err
	}
	filtered, ok := src.Filter(id)
	return filtered, ok, nil
}

// ListIDs returns the ids the unit produces, generating only when the unit
// cannot list them.
func (u *Unit) ListIDs(ctx context.Context) ([]string, error) {
	if err := u.acquire(ctx); err != nil {
		return nil, err
	}
	defer u.release()

	if u.caps.list != nil {
		if err := u.ensureConfig(ctx); err != nil {
			return nil, err
		}
		ids, ok, err := u.caps.list.List(ctx)
		if err != nil {
			return nil, zerr.With(err, "unit_id", u.id)
		}
		if ok {
			return slices.Clone(ids), nil
		}
	}

	src, err := u.source(ctx)
	if err != nil {
		return nil, err
	}
	return src.IDs(), nil
}

// Refresh drops every cached entry of the unit so the next request
// regenerates.
func (u *Unit) Refresh(ctx context.Context) error {
	if err := u.acquire(ctx); err != nil {
		return err
	}
	defer u.release()

	return u.rt.Cache.Invalidate(ctx, u.scope())
}

// generateAndStore runs a full generation and stores the result when it came
// from the generator rather than the error handler.
func (u *Unit) generateAndStore(ctx context.Context, hash domain.ContentHash) (*domain.Source, error) {
	src, cacheable, err := u.generate(ctx, hash)
	if err != nil || !cacheable {
		return src, err
	}
	if err := u.rt.Cache.Store(ctx, u.scope(), src); err != nil {
		return nil, err
	}
	return src, nil
}

// generate runs the generator and writes the result through to the fixed
// path. cacheable is false when the source was substituted by the error
// handler.
func (u *Unit) generate(ctx context.Context, hash domain.ContentHash) (*domain.Source, bool, error) {
	ctx, span := u.rt.Tracer.Start(ctx, "unit.generate")
	defer span.End()
	span.SetAttribute(telemetry.UnitIDAttribute, u.id)
	span.SetAttribute("unit.mode", modeFull)

	start := time.Now()
	blobs, err := u.gen.Generate(ctx)
	u.observe(modeFull, start, err)
	if err != nil {
		span.RecordError(err)
		src, err := u.fallback(ctx, hash, err)
		return src, false, err
	}

	src := domain.NewSource(blobs, hash, true)
	span.SetAttribute("unit.blobs", len(src.Blobs))
	if err := u.writeThrough(src); err != nil {
		return nil, false, err
	}
	return src, true, nil
}

func (u *Unit) generatePartial(ctx context.Context, id string, hash domain.ContentHash) (domain.Blob, bool, error) {
	ctx, span := u.rt.Tracer.Start(ctx, "unit.generate")
	defer span.End()
	span.SetAttribute(telemetry.UnitIDAttribute, u.id)
	span.SetAttribute("unit.mode", modePartial)
	span.SetAttribute("unit.blob", id)

	start := time.Now()
	blob, ok, err := u.caps.partial.GeneratePartial(ctx, id, hash)
	u.observe(modePartial, start, err)
	if err != nil {
		span.RecordError(err)
		return domain.Blob{}, false, err
	}
	if ok && blob.ID != id {
		blob.ID = id
	}
	return blob, ok, nil
}

// fallback routes a generation failure to the error handler once. Without a
// handler the failure is returned as ErrGenerationFailed.
func (u *Unit) fallback(ctx context.Context, hash domain.ContentHash, cause error) (*domain.Source, error) {
	failure := errors.Join(domain.ErrGenerationFailed, zerr.With(cause, "unit_id", u.id))
	if u.caps.onError == nil {
		return nil, failure
	}

	start := time.Now()
	blobs, err := u.caps.onError.HandleError(ctx, cause)
	u.observe(modeFallback, start, err)
	if err != nil {
		return nil, errors.Join(failure, zerr.With(zerr.Wrap(err, domain.ErrFallbackFailed.Error()), "unit_id", u.id))
	}
	if u.rt.Logger != nil {
		u.rt.Logger.Warn("unit " + u.id + " served fallback content: " + cause.Error())
	}
	return domain.NewSource(blobs, hash, true), nil
}

func (u *Unit) observe(mode string, start time.Time, err error) {
	if u.rt.Metrics != nil {
		u.rt.Metrics.Generation(mode, time.Since(start), err)
	}
}
