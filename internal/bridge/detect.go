package bridge

import (
	"context"
	"log/slog"
	"time"
)

const probeTimeout = 5 * time.Second

// Detect selects the backend once at process start. The live backend is
// attempted first: the executor must be able to run the daemon binary. If
// the probe fails, or forceMock is set (development outside the privileged
// host), the synthetic backend is substituted. The decision is immutable
// for the process lifetime.
func Detect(ctx context.Context, exec Executor, bin string, forceMock bool) Bridge {
	if forceMock {
		slog.Info("bridge: using synthetic backend (forced)")
		return NewMock()
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	res, err := exec.Exec(probeCtx, bin+" --help")
	if err != nil || res.Status != 0 {
		slog.Warn("bridge: privileged executor unavailable, using synthetic backend",
			"bin", bin, "err", err, "status", res.Status)
		return NewMock()
	}

	slog.Info("bridge: using live privileged backend", "bin", bin)
	return NewLive(exec, bin)
}
