package directory

// Directory metadata columns.
const (
	ColAccountName     = "accountName"
	ColAccountType     = "accountType"
	ColDisplayName     = "displayName"
	ColTypeResourceID  = "typeResourceId"
	ColExportSupport   = "exportSupport"
	ColShortcutSupport = "shortcutSupport"
	ColPhotoSupport    = "photoSupport"
)

// Phone lookup columns.
const (
	ColID               = "_id"
	ColLookupName       = "display_name"
	ColLabel            = "label"
	ColNumber           = "number"
	ColNormalizedNumber = "normalized_number"
	ColPhotoURI         = "photo_uri"
	ColPhotoThumbURI    = "photo_thumb_uri"
)

// Directory flag values, as the host contacts contract defines them.
const (
	ExportSupportSameAccountOnly = 1
	ShortcutSupportNone          = 0
	PhotoSupportFull             = 3
)

// lookupRowID is the _id of every phone lookup row. Rows served by a
// directory source are not contacts of the local database.
const lookupRowID = -1

// DirectoryColumns is the projection used when a directory query names none.
var DirectoryColumns = []string{
	ColAccountName, ColAccountType, ColDisplayName, ColTypeResourceID,
	ColExportSupport, ColShortcutSupport, ColPhotoSupport,
}

// LookupColumns is the projection used when a phone lookup names none.
var LookupColumns = []string{
	ColID, ColLookupName, ColLabel, ColNumber, ColNormalizedNumber,
	ColPhotoURI, ColPhotoThumbURI,
}
