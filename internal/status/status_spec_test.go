package status_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/ydb-platform/lid-manager/internal/lid"
	"github.com/ydb-platform/lid-manager/internal/manager"
	"github.com/ydb-platform/lid-manager/internal/mux"
	"github.com/ydb-platform/lid-manager/internal/policy"
	"github.com/ydb-platform/lid-manager/internal/power"
	"github.com/ydb-platform/lid-manager/internal/status"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Server", func() {
	var s *status.Server

	closed := manager.State{
		Lid:        lid.Closed,
		AC:         power.Offline,
		LidDevice:  "/dev/input/event0",
		Supply:     "AC",
		LastAction: policy.LockThenSuspend,
		Actions:    1,
	}

	BeforeEach(func() {
		s = status.New()
		DeferCleanup(s.Stop, context.Background())
	})

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	It("should be unavailable before the first state", func() {
		Expect(get("/healthz").Code).To(Equal(http.StatusServiceUnavailable))
	})

	It("should report disabled watchers", func() {
		Expect(s.Sink().Submit(manager.State{})).To(Succeed())
		rec := get("/healthz")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("lid handling disabled"))
	})

	It("should serve the latest state as JSON", func() {
		Expect(s.Sink().Submit(closed)).To(Succeed())

		rec := get("/state")
		Expect(rec.Code).To(Equal(http.StatusOK))
		var got map[string]interface{}
		Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
		Expect(got).To(HaveKeyWithValue("lid", "closed"))
		Expect(got).To(HaveKeyWithValue("ac", "offline"))
		Expect(got).To(HaveKeyWithValue("lastAction", "lock-then-suspend"))
		Expect(got).To(HaveKeyWithValue("actions", BeNumerically("==", 1)))
	})

	It("should follow a state source", func() {
		states := mux.Make[manager.State]()
		defer states.Close()
		cancel := s.Follow(states)
		defer cancel()

		Expect(states.Submit(closed)).To(Succeed())
		Eventually(func() int { return get("/healthz").Code }).Should(Equal(http.StatusOK))
	})

	It("should name the socket after the inhibitor", func() {
		Expect(status.SocketPath("/run/lid-manager", "lid manager")).To(Equal("/run/lid-manager/lid-manager.sock"))
	})

	It("should report the lid watcher over gRPC health", func() {
		dir, err := os.MkdirTemp("", "status")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		path, err := s.ServeGRPC(dir, "lid-manager")
		Expect(err).NotTo(HaveOccurred())

		conn, err := grpc.NewClient("unix://"+path, grpc.WithTransportCredentials(insecure.NewCredentials()))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(conn.Close)
		client := healthpb.NewHealthClient(conn)

		check := func() healthpb.HealthCheckResponse_ServingStatus {
			resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: status.Service})
			if err != nil {
				return healthpb.HealthCheckResponse_UNKNOWN
			}
			return resp.GetStatus()
		}

		Eventually(check).Should(Equal(healthpb.HealthCheckResponse_NOT_SERVING))
		Expect(s.Sink().Submit(closed)).To(Succeed())
		Eventually(check).Should(Equal(healthpb.HealthCheckResponse_SERVING))
	})

	It("should serve HTTP on the given address", func() {
		addr, err := s.ServeHTTP("127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Sink().Submit(closed)).To(Succeed())

		Eventually(func() int {
			resp, err := http.Get("http://" + addr.String() + "/healthz")
			if err != nil {
				return 0
			}
			resp.Body.Close()
			return resp.StatusCode
		}).Should(Equal(http.StatusOK))
	})
})
