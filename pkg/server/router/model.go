package router

const (
	IDParam      = "id"
	KIDParam     = "kid"
	CountryParam = "country"
)
