package internal

type Pass string

const (
	PassAnchor   Pass = "anchor"
	PassNumbered Pass = "numbered"
	PassCard     Pass = "card"
)

type SourceKind string

const (
	SourceImage SourceKind = "image"
	SourceHTML  SourceKind = "html"
	SourcePDF   SourceKind = "pdf"
	SourceText  SourceKind = "text"
)

type SourceStatus string

const (
	SourcePending        SourceStatus = "pending"
	SourceParsed         SourceStatus = "parsed"
	SourceEmpty          SourceStatus = "empty"
	SourceOCRUnavailable SourceStatus = "ocr_unavailable"
	SourceFailed         SourceStatus = "failed"
)

// CourseRecord is one course row. Nil numeric fields are absent, not zero.
type CourseRecord struct {
	CourseName    string   `json:"courseName"`
	ClassCode     string   `json:"classCode"`
	YourGrade     *float64 `json:"yourGrade"`
	ClassAvg      *float64 `json:"classAvg"`
	StdDev        *float64 `json:"stdDev"`
	Credits       *float64 `json:"credits"`
	CreditsSource string   `json:"creditsSource,omitempty"`
	Pass          Pass     `json:"pass,omitempty"`
}

// ZScore returns (grade-avg)/sd, or 0 when any input is absent or sd is 0.
func (r CourseRecord) ZScore() float64 {
	if r.YourGrade == nil || r.ClassAvg == nil || r.StdDev == nil || *r.StdDev == 0 {
		return 0
	}
	return (*r.YourGrade - *r.ClassAvg) / *r.StdDev
}

type ImportStatus string

const (
	ImportPending   ImportStatus = "pending"
	ImportProcessed ImportStatus = "processed"
	ImportFailed    ImportStatus = "failed"
	ImportExported  ImportStatus = "exported"
)

// ImportRow is one batch of sources: a CLI upload or one fetched e-mail.
type ImportRow struct {
	ID         int
	Provider   string
	Ref        string
	Label      string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     ImportStatus
	RawRef     string
	CreatedAt  string
}

type SourceRow struct {
	ID          int
	ImportID    int
	Ordinal     int
	Name        string
	Kind        SourceKind
	Hash        string
	RawRef      string
	Status      SourceStatus
	Engine      string
	TextLen     int
	TextPreview string
	Error       string
}

type CreditMapping struct {
	ClassCode string
	NameKey   string
	Name      string
	Credits   float64
	Origin    string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
