package api

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(deps Deps) *routeHandlers {
	return &routeHandlers{
		postHandler:    newPostHandler(deps.Posts, deps.Accounts, deps.Profiles, deps.FeedCache),
		savedHandler:   newSavedHandler(deps.Saved, deps.Profiles),
		accountHandler: newAccountHandler(deps.Accounts),
		profileHandler: newProfileHandler(deps.Profiles),
		userHandler:    newUserHandler(deps.Profiles),
	}
}
