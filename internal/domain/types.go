package domain

type (
	PostTitle   = string
	PostContent = string
	PostAuthor  = string

	NotificationId = uint64
	FormId         = string
	SessionId      = string
)
