package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

type tfsaProfileInput struct {
	BirthYear          int             `json:"birth_year"`
	ResidencySinceYear int             `json:"residency_since_year"`
	ManualCurrentRoom  decimal.Decimal `json:"manual_current_room"`
	Policy             string          `json:"policy"`
}

type tfsaRecordInput struct {
	Kind   string          `json:"kind"`
	Year   int             `json:"year"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note"`
}

type tfsaRecordsRequest struct {
	Ref     string            `json:"ref"`
	Profile *tfsaProfileInput `json:"profile,omitempty"`
	Record  *tfsaRecordInput  `json:"record,omitempty"`
}

type tfsaRecordsResponse struct {
	Profile *StoredTFSAProfile `json:"profile"`
	Records []StoredTFSARecord `json:"records"`
}

type tfsaDeleteRequest struct {
	Ref string `json:"ref"`
	ID  int64  `json:"id"`
}

func (in tfsaRecordInput) validate(currentYear int) error {
	if in.Kind != RecordContribution && in.Kind != RecordWithdrawal {
		return invalid("record.kind", "must be contribution or withdrawal")
	}
	if in.Year < tfsaFirstYear || in.Year > currentYear {
		return invalid("record.year", "must be between 2009 and the current year")
	}
	return requirePositive("record.amount", in.Amount)
}

// profileFromStore rebuilds the calculator input from saved history.
func profileFromStore(p StoredTFSAProfile, records []StoredTFSARecord) TFSAProfile {
	out := TFSAProfile{
		BirthYear:          p.BirthYear,
		ResidencySinceYear: p.ResidencySinceYear,
		ManualCurrentRoom:  fromCents(p.ManualRoomCents),
	}
	for _, r := range records {
		rec := TFSARecord{Year: r.Year, Amount: fromCents(r.AmountCents)}
		switch r.Kind {
		case RecordContribution:
			out.Contributions = append(out.Contributions, rec)
		case RecordWithdrawal:
			out.Withdrawals = append(out.Withdrawals, rec)
		}
	}
	return out
}

func (a *App) loadTFSAHistory(r *http.Request, contactID int64) (*StoredTFSAProfile, []StoredTFSARecord, error) {
	records, err := a.store.ListTFSARecords(r.Context(), contactID)
	if err != nil {
		return nil, nil, err
	}
	if records == nil {
		records = []StoredTFSARecord{}
	}
	p, err := a.store.GetTFSAProfile(r.Context(), contactID)
	if errors.Is(err, ErrNotFound) {
		return nil, records, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &p, records, nil
}

// handleTFSARecords lists a contact's saved history on GET. POST saves the profile,
// appends a record, or both, and answers with the updated history.
func (a *App) handleTFSARecords(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		c, err := a.contactFromRef(r, r.URL.Query().Get("ref"))
		if err != nil {
			writeFailure(w, err)
			return
		}
		a.writeTFSAHistory(w, r, c.ID, http.StatusOK)
	case http.MethodPost:
		var req tfsaRecordsRequest
		if err := decodeBody(r, &req); err != nil {
			writeFailure(w, err)
			return
		}
		c, err := a.contactFromRef(r, req.Ref)
		if err != nil {
			writeFailure(w, err)
			return
		}
		if req.Profile == nil && req.Record == nil {
			writeFailure(w, invalid("body", "needs a profile or a record"))
			return
		}
		year := a.currentYear()
		if req.Profile != nil {
			p := TFSAProfile{
				BirthYear:          req.Profile.BirthYear,
				ResidencySinceYear: req.Profile.ResidencySinceYear,
				ManualCurrentRoom:  req.Profile.ManualCurrentRoom,
			}
			if err := p.validate(year); err != nil {
				writeFailure(w, err)
				return
			}
			err := a.store.SaveTFSAProfile(r.Context(), StoredTFSAProfile{
				ContactID:          c.ID,
				BirthYear:          p.BirthYear,
				ResidencySinceYear: p.ResidencySinceYear,
				ManualRoomCents:    toCents(p.ManualCurrentRoom),
				Policy:             ParseRoomPolicy(req.Profile.Policy).String(),
			})
			if err != nil {
				writeFailure(w, err)
				return
			}
		}
		if req.Record != nil {
			if err := req.Record.validate(year); err != nil {
				writeFailure(w, err)
				return
			}
			_, err := a.store.AddTFSARecord(r.Context(), StoredTFSARecord{
				ContactID:   c.ID,
				Kind:        req.Record.Kind,
				Year:        req.Record.Year,
				AmountCents: toCents(req.Record.Amount),
				Note:        req.Record.Note,
			})
			if err != nil {
				writeFailure(w, err)
				return
			}
		}
		a.writeTFSAHistory(w, r, c.ID, http.StatusCreated)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *App) writeTFSAHistory(w http.ResponseWriter, r *http.Request, contactID int64, status int) {
	p, records, err := a.loadTFSAHistory(r, contactID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, status, tfsaRecordsResponse{Profile: p, Records: records})
}

func (a *App) handleTFSARecordDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req tfsaDeleteRequest
	if err := decodeBody(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	c, err := a.contactFromRef(r, req.Ref)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := a.store.DeleteTFSARecord(r.Context(), c.ID, req.ID); err != nil {
		writeFailure(w, err)
		return
	}
	a.writeTFSAHistory(w, r, c.ID, http.StatusOK)
}

// handleTFSAStoredRoom runs the room calculation over a contact's saved history.
// ?year= evaluates a different year; ?policy= overrides the saved policy.
func (a *App) handleTFSAStoredRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	c, err := a.contactFromRef(r, q.Get("ref"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	stored, records, err := a.loadTFSAHistory(r, c.ID)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if stored == nil {
		writeFailure(w, invalid("profile", "save a birth year before calculating room"))
		return
	}

	year := a.currentYear()
	if s := q.Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			writeFailure(w, invalid("year", "must be a calendar year"))
			return
		}
		year = y
	}
	policy := stored.Policy
	if s := q.Get("policy"); s != "" {
		policy = s
	}

	// Records after the evaluated year had not happened yet as of that year.
	asOf := records[:0:0]
	for _, rec := range records {
		if rec.Year <= year {
			asOf = append(asOf, rec)
		}
	}

	room, err := CalculateRoom(profileFromStore(*stored, asOf), year, ParseRoomPolicy(policy), a.rates.TFSALimits)
	if err != nil {
		writeFailure(w, err)
		return
	}
	a.recordUse(w, r, "tfsa")
	writeJSON(w, http.StatusOK, room)
}
