package config

const (
	DraftsUrlPath = "/drafts"

	RouteDraftCreate    = "POST " + DraftsUrlPath
	RouteDraftList      = "GET " + DraftsUrlPath
	RouteDraftGet       = "GET " + DraftsUrlPath + "/{id}"
	RouteDraftDelete    = "DELETE " + DraftsUrlPath + "/{id}"
	RouteDraftEvents    = "POST " + DraftsUrlPath + "/{id}/events"
	RouteDraftSelection = "POST " + DraftsUrlPath + "/{id}/selection"
	RouteDraftCommands  = "POST " + DraftsUrlPath + "/{id}/commands"
	RouteDraftAlign     = "POST " + DraftsUrlPath + "/{id}/align"
	RouteDraftMarkup    = "GET " + DraftsUrlPath + "/{id}/markup"
	RouteDraftSource    = "GET " + DraftsUrlPath + "/{id}/source"

	RouteSyntaxTheme = "GET /syntax-theme/{theme}"
	RouteSSE         = "GET /sse"
	RouteRobots      = "GET /robots.txt"
)
