package services

// ServiceContainer holds every service of the application.
type ServiceContainer struct {
	ProfileService  ProfileService
	MatchingService MatchingService
}
