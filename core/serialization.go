package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Binary serializers for persisting core records, written in the mus-go
// ordinary style. Field order is the wire format: changing it breaks
// existing databases.

var (
	// IDMUS serializes content-hash IDs.
	IDMUS = idMUS{}

	// RunIDMUS serializes run identifiers.
	RunIDMUS = runIDMUS{}

	// RepositoryMUS serializes one repository entry.
	RepositoryMUS = repositoryMUS{}

	// ContributionHistoryMUS serializes a daily contribution window.
	ContributionHistoryMUS = contributionHistoryMUS{}

	// ScoreBreakdownMUS serializes a six-metric score breakdown.
	ScoreBreakdownMUS = scoreBreakdownMUS{}

	// ProfileMUS serializes a full profile, breakdown included.
	ProfileMUS = profileMUS{}

	// EnrichedProfileMUS serializes a profile plus its README map.
	EnrichedProfileMUS = enrichedProfileMUS{}

	// EmbeddingMUS serializes a cached embedding vector.
	EmbeddingMUS = embeddingMUS{}

	// PhaseStatsMUS serializes one phase's counters.
	PhaseStatsMUS = phaseStatsMUS{}

	// RunRecordMUS serializes a run summary.
	RunRecordMUS = runRecordMUS{}
)

// Composite element serializers shared by the record serializers above.
var (
	timeSer   = timeUTCSer{}
	dailySer  = ord.NewSliceSer[int](varint.Int)
	repoSer   = ord.NewSliceSer[Repository](RepositoryMUS)
	readmeSer = ord.NewMapSer[string, string](ord.String, ord.String)
	vectorSer = ord.NewSliceSer[float32](raw.Float32)
	scoreSer  = ord.NewPtrSer[ScoreBreakdown](ScoreBreakdownMUS)
)

// timeUTCSer stores timestamps as Unix microseconds and unmarshals them
// in UTC.
type timeUTCSer struct{}

func (timeUTCSer) Marshal(t time.Time, bs []byte) int {
	return raw.TimeUnixMicro.Marshal(t, bs)
}

func (timeUTCSer) Unmarshal(bs []byte) (time.Time, int, error) {
	t, n, err := raw.TimeUnixMicro.Unmarshal(bs)
	return t.UTC(), n, err
}

func (timeUTCSer) Size(t time.Time) int {
	return raw.TimeUnixMicro.Size(t)
}

func (timeUTCSer) Skip(bs []byte) (int, error) {
	return raw.TimeUnixMicro.Skip(bs)
}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) int {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (ID, int, error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) int {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (int, error) {
	return varint.Uint64.Skip(bs)
}

type runIDMUS struct{}

func (runIDMUS) Marshal(id RunID, bs []byte) int {
	return ord.String.Marshal(string(id), bs)
}

func (runIDMUS) Unmarshal(bs []byte) (RunID, int, error) {
	v, n, err := ord.String.Unmarshal(bs)
	return RunID(v), n, err
}

func (runIDMUS) Size(id RunID) int {
	return ord.String.Size(string(id))
}

func (runIDMUS) Skip(bs []byte) (int, error) {
	return ord.String.Skip(bs)
}

type repositoryMUS struct{}

func (repositoryMUS) Marshal(r Repository, bs []byte) (n int) {
	n = ord.String.Marshal(r.Name, bs)
	n += ord.String.Marshal(r.Description, bs[n:])
	n += varint.Int.Marshal(r.Stars, bs[n:])
	n += varint.Int.Marshal(r.Forks, bs[n:])
	n += ord.String.Marshal(r.PrimaryLanguage, bs[n:])
	n += ord.String.Marshal(r.URL, bs[n:])
	n += timeSer.Marshal(r.PushedAt, bs[n:])
	return
}

func (repositoryMUS) Unmarshal(bs []byte) (r Repository, n int, err error) {
	r.Name, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	r.Description, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Stars, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.Forks, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.PrimaryLanguage, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.URL, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.PushedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (repositoryMUS) Size(r Repository) (size int) {
	size = ord.String.Size(r.Name)
	size += ord.String.Size(r.Description)
	size += varint.Int.Size(r.Stars)
	size += varint.Int.Size(r.Forks)
	size += ord.String.Size(r.PrimaryLanguage)
	size += ord.String.Size(r.URL)
	size += timeSer.Size(r.PushedAt)
	return
}

func (repositoryMUS) Skip(bs []byte) (n int, err error) {
	n, err = ord.String.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = timeSer.Skip(bs[n:])
	n += n1
	return
}

type contributionHistoryMUS struct{}

func (contributionHistoryMUS) Marshal(h ContributionHistory, bs []byte) (n int) {
	n = varint.Int.Marshal(h.Total, bs)
	n += dailySer.Marshal(h.Daily, bs[n:])
	return
}

func (contributionHistoryMUS) Unmarshal(bs []byte) (h ContributionHistory, n int, err error) {
	h.Total, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	h.Daily, n1, err = dailySer.Unmarshal(bs[n:])
	n += n1
	return
}

func (contributionHistoryMUS) Size(h ContributionHistory) (size int) {
	size = varint.Int.Size(h.Total)
	size += dailySer.Size(h.Daily)
	return
}

func (contributionHistoryMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Int.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = dailySer.Skip(bs[n:])
	n += n1
	return
}

type scoreBreakdownMUS struct{}

func (scoreBreakdownMUS) Marshal(b ScoreBreakdown, bs []byte) (n int) {
	n = raw.Float64.Marshal(b.Contributions, bs)
	n += raw.Float64.Marshal(b.Stars, bs[n:])
	n += raw.Float64.Marshal(b.Followers, bs[n:])
	n += raw.Float64.Marshal(b.Activity, bs[n:])
	n += raw.Float64.Marshal(b.Trend, bs[n:])
	n += raw.Float64.Marshal(b.Repositories, bs[n:])
	n += raw.Float64.Marshal(b.Composite, bs[n:])
	return
}

func (scoreBreakdownMUS) Unmarshal(bs []byte) (b ScoreBreakdown, n int, err error) {
	fields := []*float64{
		&b.Contributions, &b.Stars, &b.Followers,
		&b.Activity, &b.Trend, &b.Repositories, &b.Composite,
	}
	var n1 int
	for _, field := range fields {
		*field, n1, err = raw.Float64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (scoreBreakdownMUS) Size(b ScoreBreakdown) int {
	return 7 * raw.Float64.Size(0)
}

func (scoreBreakdownMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 7; i++ {
		n1, err = raw.Float64.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

type profileMUS struct{}

func (profileMUS) Marshal(p Profile, bs []byte) (n int) {
	n = ord.String.Marshal(string(p.Login), bs)
	n += ord.String.Marshal(p.Name, bs[n:])
	n += ord.String.Marshal(p.Bio, bs[n:])
	n += ord.String.Marshal(p.Company, bs[n:])
	n += ord.String.Marshal(p.Location, bs[n:])
	n += ord.String.Marshal(p.Email, bs[n:])
	n += ord.String.Marshal(p.WebsiteURL, bs[n:])
	n += varint.Int.Marshal(p.Followers, bs[n:])
	n += varint.Int.Marshal(p.Following, bs[n:])
	n += varint.Int.Marshal(p.RepoCount, bs[n:])
	n += repoSer.Marshal(p.Repositories, bs[n:])
	n += ContributionHistoryMUS.Marshal(p.Contributions, bs[n:])
	n += timeSer.Marshal(p.FetchedAt, bs[n:])
	n += scoreSer.Marshal(p.Breakdown, bs[n:])
	return
}

func (profileMUS) Unmarshal(bs []byte) (p Profile, n int, err error) {
	var login string
	login, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	p.Login = Identifier(login)

	var n1 int
	strings := []*string{&p.Name, &p.Bio, &p.Company, &p.Location, &p.Email, &p.WebsiteURL}
	for _, field := range strings {
		*field, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	counts := []*int{&p.Followers, &p.Following, &p.RepoCount}
	for _, field := range counts {
		*field, n1, err = varint.Int.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	p.Repositories, n1, err = repoSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Contributions, n1, err = ContributionHistoryMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.FetchedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	p.Breakdown, n1, err = scoreSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (profileMUS) Size(p Profile) (size int) {
	size = ord.String.Size(string(p.Login))
	size += ord.String.Size(p.Name)
	size += ord.String.Size(p.Bio)
	size += ord.String.Size(p.Company)
	size += ord.String.Size(p.Location)
	size += ord.String.Size(p.Email)
	size += ord.String.Size(p.WebsiteURL)
	size += varint.Int.Size(p.Followers)
	size += varint.Int.Size(p.Following)
	size += varint.Int.Size(p.RepoCount)
	size += repoSer.Size(p.Repositories)
	size += ContributionHistoryMUS.Size(p.Contributions)
	size += timeSer.Size(p.FetchedAt)
	size += scoreSer.Size(p.Breakdown)
	return
}

func (profileMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 7; i++ { // Login through WebsiteURL
		n1, err = ord.String.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 3; i++ { // Followers, Following, RepoCount
		n1, err = varint.Int.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = repoSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ContributionHistoryMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = timeSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = scoreSer.Skip(bs[n:])
	n += n1
	return
}

type enrichedProfileMUS struct{}

func (enrichedProfileMUS) Marshal(e EnrichedProfile, bs []byte) (n int) {
	n = ProfileMUS.Marshal(e.Profile, bs)
	n += readmeSer.Marshal(e.Readmes, bs[n:])
	return
}

func (enrichedProfileMUS) Unmarshal(bs []byte) (e EnrichedProfile, n int, err error) {
	e.Profile, n, err = ProfileMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	e.Readmes, n1, err = readmeSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (enrichedProfileMUS) Size(e EnrichedProfile) (size int) {
	size = ProfileMUS.Size(e.Profile)
	size += readmeSer.Size(e.Readmes)
	return
}

func (enrichedProfileMUS) Skip(bs []byte) (n int, err error) {
	n, err = ProfileMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = readmeSer.Skip(bs[n:])
	n += n1
	return
}

type embeddingMUS struct{}

func (embeddingMUS) Marshal(e Embedding, bs []byte) (n int) {
	n = IDMUS.Marshal(e.ContentID, bs)
	n += ord.String.Marshal(e.Model, bs[n:])
	n += vectorSer.Marshal(e.Vector, bs[n:])
	n += timeSer.Marshal(e.CreatedAt, bs[n:])
	return
}

func (embeddingMUS) Unmarshal(bs []byte) (e Embedding, n int, err error) {
	e.ContentID, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	e.Model, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.Vector, n1, err = vectorSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	e.CreatedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	return
}

func (embeddingMUS) Size(e Embedding) (size int) {
	size = IDMUS.Size(e.ContentID)
	size += ord.String.Size(e.Model)
	size += vectorSer.Size(e.Vector)
	size += timeSer.Size(e.CreatedAt)
	return
}

func (embeddingMUS) Skip(bs []byte) (n int, err error) {
	n, err = IDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorSer.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = timeSer.Skip(bs[n:])
	n += n1
	return
}

type phaseStatsMUS struct{}

func (phaseStatsMUS) Marshal(s PhaseStats, bs []byte) (n int) {
	n = varint.Int.Marshal(s.Succeeded, bs)
	n += varint.Int.Marshal(s.Dropped, bs[n:])
	n += varint.Int64.Marshal(int64(s.Duration), bs[n:])
	return
}

func (phaseStatsMUS) Unmarshal(bs []byte) (s PhaseStats, n int, err error) {
	s.Succeeded, n, err = varint.Int.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	s.Dropped, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var d int64
	d, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	s.Duration = time.Duration(d)
	return
}

func (phaseStatsMUS) Size(s PhaseStats) (size int) {
	size = varint.Int.Size(s.Succeeded)
	size += varint.Int.Size(s.Dropped)
	size += varint.Int64.Size(int64(s.Duration))
	return
}

func (phaseStatsMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	for i := 0; i < 2; i++ {
		n1, err = varint.Int.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}

type runRecordMUS struct{}

func (runRecordMUS) Marshal(r RunRecord, bs []byte) (n int) {
	n = RunIDMUS.Marshal(r.Id, bs)
	n += ord.String.Marshal(r.Query, bs[n:])
	n += timeSer.Marshal(r.StartedAt, bs[n:])
	n += timeSer.Marshal(r.FinishedAt, bs[n:])
	n += PhaseStatsMUS.Marshal(r.Discovery, bs[n:])
	n += PhaseStatsMUS.Marshal(r.Fetch, bs[n:])
	n += PhaseStatsMUS.Marshal(r.Ranking, bs[n:])
	n += PhaseStatsMUS.Marshal(r.Enrichment, bs[n:])
	return
}

func (runRecordMUS) Unmarshal(bs []byte) (r RunRecord, n int, err error) {
	r.Id, n, err = RunIDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	r.Query, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.StartedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	r.FinishedAt, n1, err = timeSer.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	phases := []*PhaseStats{&r.Discovery, &r.Fetch, &r.Ranking, &r.Enrichment}
	for _, phase := range phases {
		*phase, n1, err = PhaseStatsMUS.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}

func (runRecordMUS) Size(r RunRecord) (size int) {
	size = RunIDMUS.Size(r.Id)
	size += ord.String.Size(r.Query)
	size += timeSer.Size(r.StartedAt)
	size += timeSer.Size(r.FinishedAt)
	size += PhaseStatsMUS.Size(r.Discovery)
	size += PhaseStatsMUS.Size(r.Fetch)
	size += PhaseStatsMUS.Size(r.Ranking)
	size += PhaseStatsMUS.Size(r.Enrichment)
	return
}

func (runRecordMUS) Skip(bs []byte) (n int, err error) {
	n, err = RunIDMUS.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	for i := 0; i < 2; i++ {
		n1, err = timeSer.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	for i := 0; i < 4; i++ {
		n1, err = PhaseStatsMUS.Skip(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	return
}
