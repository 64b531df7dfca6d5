package platform

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// App names the sender. Empty means "Annotator".
	App string
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	// Category is a Freedesktop hint such as "transfer.complete".
	Category  string
	TimeoutMS int
}

// AppName returns App or the default sender name.
func (o Options) AppName() string {
	if o.App == "" {
		return "Annotator"
	}
	return o.App
}
