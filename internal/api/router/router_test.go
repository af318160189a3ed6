package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/easterncc001/shift-logger/config"
	"github.com/easterncc001/shift-logger/internal/api/handler"
	"github.com/easterncc001/shift-logger/internal/dto"
	"github.com/easterncc001/shift-logger/internal/service"
	"github.com/easterncc001/shift-logger/pkg/jwt"
)

type countingReaper struct{ sweeps int }

func (r *countingReaper) Reap(_ context.Context) (int, error) { return 0, nil }
func (r *countingReaper) Sweep(_ context.Context)             { r.sweeps++ }

type stubShiftAdmin struct{}

func (stubShiftAdmin) List(_ context.Context, _ *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error) {
	return []dto.ShiftResponse{}, 0, nil
}

func (stubShiftAdmin) GetByID(_ context.Context, id uint64) (*dto.ShiftResponse, error) {
	return &dto.ShiftResponse{ID: id}, nil
}

func (stubShiftAdmin) Update(_ context.Context, id uint64, _ *dto.UpdateShiftRequest) (*dto.ShiftResponse, error) {
	return &dto.ShiftResponse{ID: id}, nil
}

func (stubShiftAdmin) Delete(_ context.Context, _ uint64) error { return nil }

func setupTestRouter(t *testing.T) (http.Handler, *countingReaper, string) {
	t.Helper()
	cfg := &config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret-at-least-16", AccessTokenTTL: time.Hour},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	token, _, err := jwtMgr.GenerateAccessToken("admin", service.RoleAdmin)
	if err != nil {
		t.Fatalf("生成 Token 失败: %v", err)
	}

	reaper := &countingReaper{}
	svc := &service.Service{ShiftAdmin: stubShiftAdmin{}, Reaper: reaper}
	r := Setup(cfg, handler.NewHandler(svc, nil), reaper, jwtMgr, nil, zap.NewNop())
	return r, reaper, token
}

func TestAdminShiftList_SweepsStaleShifts(t *testing.T) {
	r, reaper, token := setupTestRouter(t)

	cases := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantSweeps int
	}{
		{"未认证不触发清理", "/api/v1/admin/shifts", "", http.StatusUnauthorized, 0},
		{"班次列表触发清理", "/api/v1/admin/shifts", token, http.StatusOK, 1},
		{"班次详情不触发清理", "/api/v1/admin/shifts/7", token, http.StatusOK, 1},
		{"再次查看列表", "/api/v1/admin/shifts?page=1", token, http.StatusOK, 2},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.path, nil)
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.wantStatus {
			t.Errorf("%s: 期望状态码 %d，实际: %d", tc.name, tc.wantStatus, w.Code)
		}
		if reaper.sweeps != tc.wantSweeps {
			t.Errorf("%s: 期望累计清理 %d 次，实际: %d", tc.name, tc.wantSweeps, reaper.sweeps)
		}
	}
}
