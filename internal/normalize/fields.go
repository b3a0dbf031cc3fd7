package normalize

// Candidate upstream field names per canonical attribute, in resolution order.
// New upstream aliases are added here, not in the resolution code.
var (
	IDFields     = []string{"id", "projectId", "nepaId", "documentId", "projectID", "nepaNumber"}
	TitleFields  = []string{"projectName", "title", "name"}
	OfficeFields = []string{"leadOfficeName", "office", "fieldOffice"}
	TypeFields   = []string{"nepaType", "nepaDocumentType", "documentType", "type"}
	StatusFields = []string{"nepaStatus", "projectStatus", "status"}
	URLFields    = []string{"url"}

	// URLIDFields feed the synthesized deep link.
	URLIDFields = []string{"projectId", "id"}

	StateField  = "state"
	StatesField = "states"

	// RowFields are the payload keys that may hold the row list.
	RowFields = []string{"items", "content", "results", "data"}
)

// ProjectPath is the deep-link template appended to the base URL.
const ProjectPath = "/eplanning-ui/project/%s/510"
