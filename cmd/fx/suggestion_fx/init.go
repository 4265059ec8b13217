package suggestion_fx

import (
	"go.uber.org/fx"

	"subtrack/internal/repositories"
	"subtrack/internal/services"
)

var Module = fx.Provide(
	repositories.NewSuggestionRepository,
	repositories.NewIgnoredSenderRepository,
	services.NewSuggestionService,
)
