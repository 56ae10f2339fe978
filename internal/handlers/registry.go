package handlers

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	ProfileHandler  *ProfileHandler
	MatchingHandler *MatchingHandler
	HealthHandler   *HealthHandler
}
