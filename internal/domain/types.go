package domain

type (
	Email    = string
	Password = string

	// Ids are uuid4 strings assigned by the storage layer.
	UserId    = string
	NodeId    = string
	SurfaceId = string

	NodeText = string
	MediaRef = string
)
