package domain

// CanvasView is the complete state of an application canvas for rendering.
// Boxes are ordered top-to-bottom, then left-to-right.
type CanvasView struct {
	AppID   string `json:"appId"`
	AppName string `json:"appName"`
	Boxes   []Box  `json:"boxes"`
}
