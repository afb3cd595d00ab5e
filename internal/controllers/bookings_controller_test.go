package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/partnerclub/booking-service/internal/constants"
	"github.com/partnerclub/booking-service/internal/events"
	"github.com/partnerclub/booking-service/internal/middleware"
	"github.com/partnerclub/booking-service/internal/models"
	"github.com/partnerclub/booking-service/internal/routes"
	"github.com/partnerclub/booking-service/internal/services"
	"github.com/partnerclub/booking-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────────── fakes ───────────── */

type fakeBookingRepo struct {
	createFn          func(ctx context.Context, b *models.Booking) error
	getByIDFn         func(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	getActiveByUnitFn func(ctx context.Context, unitID uuid.UUID) (*models.Booking, error)
	listViewsFn       func(ctx context.Context, buyerID uuid.UUID) ([]*models.BookingView, error)
	attachPassportFn  func(ctx context.Context, bookingID uuid.UUID, name, phone, ref string) (*models.Booking, error)
	cancelActiveFn    func(ctx context.Context, unitID uuid.UUID) (*models.Booking, error)
	advanceStageFn    func(ctx context.Context, bookingID uuid.UUID, to models.BookingStage) (*models.Booking, error)
	expireStaleInitFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	return f.createFn(ctx, b)
}
func (f *fakeBookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeBookingRepo) GetActiveByUnitID(ctx context.Context, unitID uuid.UUID) (*models.Booking, error) {
	return f.getActiveByUnitFn(ctx, unitID)
}
func (f *fakeBookingRepo) ListViewsByBuyerID(ctx context.Context, buyerID uuid.UUID) ([]*models.BookingView, error) {
	return f.listViewsFn(ctx, buyerID)
}
func (f *fakeBookingRepo) AttachPassportAtomic(ctx context.Context, bookingID uuid.UUID, name, phone, ref string) (*models.Booking, error) {
	return f.attachPassportFn(ctx, bookingID, name, phone, ref)
}
func (f *fakeBookingRepo) CancelActiveForUnitAtomic(ctx context.Context, unitID uuid.UUID) (*models.Booking, error) {
	return f.cancelActiveFn(ctx, unitID)
}
func (f *fakeBookingRepo) AdvanceStageAtomic(ctx context.Context, bookingID uuid.UUID, to models.BookingStage) (*models.Booking, error) {
	return f.advanceStageFn(ctx, bookingID, to)
}
func (f *fakeBookingRepo) ExpireStaleInit(ctx context.Context, cutoff time.Time) (int64, error) {
	return f.expireStaleInitFn(ctx, cutoff)
}

type fakeUnitRepo struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*models.Unit, error)
}

func (f *fakeUnitRepo) Create(ctx context.Context, u *models.Unit) error      { return nil }
func (f *fakeUnitRepo) CreateMany(ctx context.Context, l []models.Unit) error { return nil }
func (f *fakeUnitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakeUnitRepo) ListByProjectID(ctx context.Context, projectID uuid.UUID) ([]*models.Unit, error) {
	return nil, nil
}

type fakePartnerRepo struct {
	getByIDFn func(ctx context.Context, id uuid.UUID) (*models.Partner, error)
}

func (f *fakePartnerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
	return f.getByIDFn(ctx, id)
}
func (f *fakePartnerRepo) GetByTelegramID(ctx context.Context, tid int64) (*models.Partner, error) {
	return nil, nil
}
func (f *fakePartnerRepo) Upsert(ctx context.Context, p *models.Partner) (*models.Partner, error) {
	return p, nil
}
func (f *fakePartnerRepo) GrantCapability(ctx context.Context, id uuid.UUID, cap string) error {
	return nil
}

type fakeDocumentStore struct {
	saveErr error
	saved   []string
}

func (s *fakeDocumentStore) Save(ctx context.Context, bookingID uuid.UUID, filename string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	ref := bookingID.String() + "/" + filename
	s.saved = append(s.saved, ref)
	return ref, nil
}

func (s *fakeDocumentStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

/* ───────────── harness ───────────── */

type testEnv struct {
	bookingRepo *fakeBookingRepo
	unitRepo    *fakeUnitRepo
	partnerRepo *fakePartnerRepo
	docs        *fakeDocumentStore
	router      *mux.Router
}

func newTestEnv() *testEnv {
	env := &testEnv{
		bookingRepo: &fakeBookingRepo{},
		unitRepo:    &fakeUnitRepo{},
		partnerRepo: &fakePartnerRepo{},
		docs:        &fakeDocumentStore{},
	}
	svc := services.NewBookingService(env.bookingRepo, env.unitRepo, env.partnerRepo, events.NoopPublisher{})
	ctrl := NewBookingsController(svc, env.docs)

	router := mux.NewRouter()
	router.HandleFunc(routes.BookingsCreate, ctrl.CreateBookingHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.BookingsPassport, ctrl.AttachPassportHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.BookingsCancel, ctrl.CancelBookingHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.BookingsMy, ctrl.ListMyBookingsHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.BookingsStage, ctrl.AdvanceStageHandler).Methods(http.MethodPost)
	env.router = router
	return env
}

// do serves req as if the auth middleware had already admitted partnerID.
func (env *testEnv) do(req *http.Request, partnerID uuid.UUID) *httptest.ResponseRecorder {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyUserID, partnerID.String())
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	t.Helper()
	var resp utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func passportRequest(t *testing.T, bookingID uuid.UUID, name, phone string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("buyer_name", name))
	require.NoError(t, mw.WriteField("buyer_phone", phone))
	part, err := mw.CreateFormFile("passport", "scan.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("jpegbytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+bookingID.String()+"/passport", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

/* ───────────── create ───────────── */

func TestCreateBookingHandler(t *testing.T) {
	projectID := uuid.New()
	buyerID := uuid.New()
	unit := &models.Unit{ID: uuid.New(), ProjectID: projectID, Status: models.UnitStatusFree}

	t.Run("creates INIT booking", func(t *testing.T) {
		env := newTestEnv()
		env.unitRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
			return unit, nil
		}
		env.bookingRepo.getActiveByUnitFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			return nil, nil
		}
		env.bookingRepo.createFn = func(ctx context.Context, b *models.Booking) error { return nil }

		req := httptest.NewRequest(http.MethodPost, "/api/bookings",
			jsonBody(t, map[string]string{"unitId": unit.ID.String(), "projectId": projectID.String()}))
		rec := env.do(req, buyerID)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp struct {
			Success   bool      `json:"success"`
			BookingID uuid.UUID `json:"bookingId"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEqual(t, uuid.Nil, resp.BookingID)
	})

	t.Run("booked unit is a conflict", func(t *testing.T) {
		env := newTestEnv()
		env.unitRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
			return &models.Unit{ID: unit.ID, ProjectID: projectID, Status: models.UnitStatusBooked}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/api/bookings",
			jsonBody(t, map[string]string{"unitId": unit.ID.String(), "projectId": projectID.String()}))
		rec := env.do(req, buyerID)

		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeError(t, rec)
		assert.False(t, resp.Success)
		assert.Equal(t, utils.ErrCodeUnitNotFree, resp.Error)
	})

	t.Run("unknown unit is a 404", func(t *testing.T) {
		env := newTestEnv()
		env.unitRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
			return nil, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/api/bookings",
			jsonBody(t, map[string]string{"unitId": uuid.NewString(), "projectId": projectID.String()}))
		rec := env.do(req, buyerID)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, utils.ErrCodeUnitNotFound, decodeError(t, rec).Error)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		env := newTestEnv()
		req := httptest.NewRequest(http.MethodPost, "/api/bookings",
			jsonBody(t, map[string]string{"unitId": unit.ID.String()}))
		rec := env.do(req, buyerID)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, utils.ErrCodeValidation, decodeError(t, rec).Error)
	})

	t.Run("no identity in context is a 401", func(t *testing.T) {
		env := newTestEnv()
		req := httptest.NewRequest(http.MethodPost, "/api/bookings",
			jsonBody(t, map[string]string{"unitId": unit.ID.String(), "projectId": projectID.String()}))
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

/* ───────────── passport ───────────── */

func TestAttachPassportHandler(t *testing.T) {
	buyerID := uuid.New()

	initBooking := func(id uuid.UUID) *models.Booking {
		return &models.Booking{
			ID: id, UnitID: uuid.New(), ProjectID: uuid.New(),
			BuyerID: buyerID, Stage: models.StageInit, Active: true,
		}
	}

	t.Run("stores document then confirms booking", func(t *testing.T) {
		bookingID := uuid.New()
		env := newTestEnv()
		env.bookingRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			return initBooking(bookingID), nil
		}
		var gotRef string
		env.bookingRepo.attachPassportFn = func(ctx context.Context, id uuid.UUID, name, phone, ref string) (*models.Booking, error) {
			gotRef = ref
			b := initBooking(bookingID)
			b.Stage = models.StagePassportSent
			return b, nil
		}

		rec := env.do(passportRequest(t, bookingID, "Ivan Petrov", "+79001234567"), buyerID)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.Len(t, env.docs.saved, 1)
		assert.Equal(t, env.docs.saved[0], gotRef)
	})

	t.Run("store failure is a 502 and no ledger call", func(t *testing.T) {
		bookingID := uuid.New()
		env := newTestEnv()
		env.docs.saveErr = errors.New("disk full")
		ledgerCalled := false
		env.bookingRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			ledgerCalled = true
			return initBooking(bookingID), nil
		}

		rec := env.do(passportRequest(t, bookingID, "Ivan Petrov", "+79001234567"), buyerID)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, utils.ErrCodeUpstreamStoreFailure, decodeError(t, rec).Error)
		assert.False(t, ledgerCalled)
	})

	t.Run("losing the unit race is a conflict, document orphaned", func(t *testing.T) {
		bookingID := uuid.New()
		env := newTestEnv()
		env.bookingRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			return initBooking(bookingID), nil
		}
		env.bookingRepo.attachPassportFn = func(ctx context.Context, id uuid.UUID, name, phone, ref string) (*models.Booking, error) {
			return nil, utils.ErrUnitNoLongerAvailable
		}

		rec := env.do(passportRequest(t, bookingID, "Ivan Petrov", "+79001234567"), buyerID)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, utils.ErrCodeUnitNoLongerAvailable, decodeError(t, rec).Error)
		assert.Len(t, env.docs.saved, 1)
	})

	t.Run("someone else's booking is forbidden", func(t *testing.T) {
		bookingID := uuid.New()
		env := newTestEnv()
		env.bookingRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			b := initBooking(bookingID)
			b.BuyerID = uuid.New()
			return b, nil
		}

		rec := env.do(passportRequest(t, bookingID, "Ivan Petrov", "+79001234567"), buyerID)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, utils.ErrCodeNotAuthorized, decodeError(t, rec).Error)
	})

	t.Run("oversized upload is rejected before any store call", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("buyer_name", "Ivan Petrov"))
		require.NoError(t, mw.WriteField("buyer_phone", "+79001234567"))
		part, err := mw.CreateFormFile("passport", "scan.jpg")
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte("x"), constants.MaxPassportUploadBytes+1))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+uuid.NewString()+"/passport", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		env := newTestEnv()
		rec := env.do(req, buyerID)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Empty(t, env.docs.saved)
	})

	t.Run("bad phone number is rejected before any store call", func(t *testing.T) {
		env := newTestEnv()
		rec := env.do(passportRequest(t, uuid.New(), "Ivan Petrov", "not-a-phone"), buyerID)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, utils.ErrCodeValidation, decodeError(t, rec).Error)
		assert.Empty(t, env.docs.saved)
	})
}

/* ───────────── cancel ───────────── */

func TestCancelBookingHandler(t *testing.T) {
	buyerID := uuid.New()
	unitID := uuid.New()
	active := &models.Booking{
		ID: uuid.New(), UnitID: unitID, BuyerID: buyerID,
		Stage: models.StagePassportSent, Active: true,
	}

	t.Run("owner cancels", func(t *testing.T) {
		env := newTestEnv()
		env.bookingRepo.getActiveByUnitFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			return active, nil
		}
		env.bookingRepo.cancelActiveFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			cancelled := *active
			cancelled.Active = false
			return &cancelled, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/cancel",
			jsonBody(t, map[string]string{"unitId": unitID.String()}))
		rec := env.do(req, buyerID)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("stranger without capability is forbidden", func(t *testing.T) {
		env := newTestEnv()
		env.bookingRepo.getActiveByUnitFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			return active, nil
		}
		env.partnerRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
			return &models.Partner{ID: id}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/cancel",
			jsonBody(t, map[string]string{"unitId": unitID.String()}))
		rec := env.do(req, uuid.New())

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, utils.ErrCodeNotAuthorized, decodeError(t, rec).Error)
	})

	t.Run("no active booking is a 404", func(t *testing.T) {
		env := newTestEnv()
		env.bookingRepo.getActiveByUnitFn = func(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
			return nil, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/cancel",
			jsonBody(t, map[string]string{"unitId": unitID.String()}))
		rec := env.do(req, buyerID)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, utils.ErrCodeBookingNotFound, decodeError(t, rec).Error)
	})
}

/* ───────────── my bookings ───────────── */

func TestListMyBookingsHandler(t *testing.T) {
	buyerID := uuid.New()
	name := "Ivan Petrov"

	env := newTestEnv()
	env.bookingRepo.listViewsFn = func(ctx context.Context, id uuid.UUID) ([]*models.BookingView, error) {
		require.Equal(t, buyerID, id)
		return []*models.BookingView{
			{
				ID: uuid.New(), UnitNumber: "304", UnitFloor: 3, UnitArea: 62.4,
				UnitRooms: 2, UnitPrice: 8_100_000, ProjectName: "Riverside Towers",
				BuyerName: &name, Stage: models.StagePassportSent,
			},
			{
				ID: uuid.New(), UnitNumber: "101", UnitFloor: 1, UnitArea: 41.0,
				UnitRooms: 1, UnitPrice: 5_400_000, ProjectName: "Riverside Towers",
				Stage: models.StageInit,
			},
		}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/my", bytes.NewReader(nil))
	rec := env.do(req, buyerID)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "304", out[0]["unit_number"])
	assert.Equal(t, "Ivan Petrov", out[0]["buyer_name"])
	assert.Equal(t, "PASSPORT_SENT", out[0]["stage"])
	assert.Equal(t, "", out[1]["buyer_name"])
}

/* ───────────── stage ───────────── */

func TestAdvanceStageHandler(t *testing.T) {
	operatorID := uuid.New()
	bookingID := uuid.New()

	t.Run("operator advances to DOCS_SENT", func(t *testing.T) {
		env := newTestEnv()
		env.partnerRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
			return &models.Partner{ID: id, Capabilities: []string{models.CapAdvanceBookingStage}}, nil
		}
		env.bookingRepo.advanceStageFn = func(ctx context.Context, id uuid.UUID, to models.BookingStage) (*models.Booking, error) {
			return &models.Booking{ID: id, Stage: to, Active: true}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+bookingID.String()+"/stage",
			jsonBody(t, map[string]string{"stage": "DOCS_SENT"}))
		rec := env.do(req, operatorID)

		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("PASSPORT_SENT is not a valid target", func(t *testing.T) {
		env := newTestEnv()
		req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+bookingID.String()+"/stage",
			jsonBody(t, map[string]string{"stage": "PASSPORT_SENT"}))
		rec := env.do(req, operatorID)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("without capability is forbidden", func(t *testing.T) {
		env := newTestEnv()
		env.partnerRepo.getByIDFn = func(ctx context.Context, id uuid.UUID) (*models.Partner, error) {
			return &models.Partner{ID: id}, nil
		}

		req := httptest.NewRequest(http.MethodPost, "/api/bookings/"+bookingID.String()+"/stage",
			jsonBody(t, map[string]string{"stage": "COMPLETE"}))
		rec := env.do(req, operatorID)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
