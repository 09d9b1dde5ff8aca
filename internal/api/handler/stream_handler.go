package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/d60-Lab/linkup/internal/api/middleware"
	"github.com/d60-Lab/linkup/internal/changefeed"
	"github.com/d60-Lab/linkup/pkg/logger"
	"github.com/d60-Lab/linkup/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// 浏览器端由 token 鉴权，来源不做限制
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait     = 10 * time.Second
	pingPeriod    = 30 * time.Second
	streamBacklog = 64
)

// Realtime 把变更事件流推给客户端：posts 全量，notifications 只推本人。
// 队列写满时断开连接，客户端重连后以快照兜底。
// @Summary 实时事件流 (websocket)
// @Tags 信息流
// @Router /api/v1/realtime [get]
func (h *Handler) Realtime(c *gin.Context) {
	viewer := middleware.ViewerID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		response.BadRequest(c, "websocket upgrade failed")
		return
	}

	events := make(chan changefeed.Event, streamBacklog)
	overflow := make(chan struct{}, 1)
	forward := func(ev changefeed.Event) {
		select {
		case events <- ev:
		default:
			select {
			case overflow <- struct{}{}:
			default:
			}
		}
	}

	postSub, err := h.bus.Subscribe(c.Request.Context(), changefeed.TopicPosts, nil, forward)
	if err != nil {
		_ = conn.Close()
		return
	}
	defer postSub.Close()

	notifSub, err := h.bus.Subscribe(c.Request.Context(), changefeed.TopicNotifications,
		func(ev changefeed.Event) bool {
			rec, err := ev.DecodeNotification()
			return err == nil && rec.ReceiverID == viewer
		}, forward)
	if err != nil {
		_ = conn.Close()
		return
	}
	defer notifSub.Close()

	// 读协程只为感知断开
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case ev := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-overflow:
			logger.Warn("realtime: client too slow, dropping connection", zap.String("viewer", viewer))
			return
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
