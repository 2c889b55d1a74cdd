package services

// AppConfig carries cross-cutting deployment settings.
type AppConfig struct {
	BaseURL     string // public portal origin, e.g. https://portal.belvieudigital.com
	Environment string // production | development
	ServiceName string
}
