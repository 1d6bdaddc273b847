package steps

import (
	"context"

	"github.com/CihanTAYLAN/db-migration-tool/internal/source"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
)

// PrepareStep validates both databases, resolves the default language and
// loads the shared lookup state every later stage reads.
type PrepareStep struct {
	deps *Deps
}

func NewPrepareStep(deps *Deps) *PrepareStep {
	return &PrepareStep{deps: deps}
}

func (s *PrepareStep) Name() string { return "prepare" }

func (s *PrepareStep) Run(ctx context.Context, state *migration.Context) (*migration.Result, error) {
	ctx, span := tracing.StartSpan(ctx, "steps.Prepare")
	defer span.End()

	if err := s.deps.SourceDB.PingContext(ctx); err != nil {
		return nil, migration.NewMigrationErrorf(migration.KindConfig, "source database unreachable: %v", err)
	}
	if err := s.deps.TargetDB.PingContext(ctx); err != nil {
		return nil, migration.NewMigrationErrorf(migration.KindConfig, "target database unreachable: %v", err)
	}

	languages, err := s.deps.Lookup.ListLanguages(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, language := range languages {
		if language.Code == s.deps.Config.DefaultLanguageCode {
			state.DefaultLanguageID = language.ID
			state.DefaultLanguageCode = language.Code
			found = true
			break
		}
	}
	if !found {
		return nil, migration.NewMigrationErrorf(migration.KindConfig,
			"default language %q not present in target: %v",
			s.deps.Config.DefaultLanguageCode, migration.ErrMissingDefaultLanguage)
	}

	currencies, err := s.deps.Lookup.ListCurrencies(ctx)
	if err != nil {
		return nil, err
	}
	if len(currencies) == 0 {
		return nil, migration.NewMigrationErrorf(migration.KindConfig, "currencies table is empty: %v", migration.ErrMissingCurrency)
	}

	attributes, err := s.deps.Attributes.LoadAttributeIDs(ctx,
		source.EntityProduct, source.EntityCategory, source.EntityCustomer, source.EntityCustomerAddress)
	if err != nil {
		return nil, err
	}
	for entity, attrs := range attributes {
		state.SetAttributeIDs(entity, attrs)
	}

	rates, err := s.deps.Content.FetchCurrencyRates(ctx, "AUD")
	if err != nil {
		return nil, err
	}
	state.CurrencyRates["AUD"] = 1
	for _, rate := range rates {
		state.CurrencyRates[rate.CurrencyTo] = rate.Rate
	}

	s.deps.Logger.WithContext(ctx).WithFields(map[string]any{
		"default_language": state.DefaultLanguageCode,
		"languages":        len(languages),
		"currency_rates":   len(state.CurrencyRates),
	}).Info("Migration context prepared")

	return &migration.Result{Success: true, Count: len(languages)}, nil
}
