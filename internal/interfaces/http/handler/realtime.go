package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"z-script-ai-api/internal/application/studio"
	"z-script-ai-api/internal/config"
	"z-script-ai-api/internal/domain/entity"
	"z-script-ai-api/internal/domain/repository"
	"z-script-ai-api/internal/infrastructure/realtime"
	"z-script-ai-api/internal/interfaces/http/dto"
	"z-script-ai-api/pkg/logger"
)

// 客户端可发送的事件
const (
	clientEventJoinProject = "joinProject"
	clientEventPrompt      = "prompt"
)

// 服务端回执事件
const (
	serverEventJoined  = "joined"
	serverEventAck     = "promptAccepted"
	serverEventRefused = "error"
)

const maxClientMessageBytes = 64 << 10

// clientMessage 客户端消息
type clientMessage struct {
	Event     string `json:"event"`
	ProjectID string `json:"projectId,omitempty"`
	Prompt    string `json:"prompt,omitempty"`
}

// PromptGate 提示提交前的准入检查，返回 false 表示拒绝
type PromptGate func(ctx context.Context, projectID string) bool

// RealtimeHandler 项目实时通道：订阅项目事件并接收提示
type RealtimeHandler struct {
	projectRepo repository.ProjectRepository
	hub         *realtime.Hub
	dispatcher  studio.PromptDispatcher
	gate        PromptGate
	upgrader    websocket.Upgrader
	writeWait   time.Duration
	pingEvery   time.Duration
}

// NewRealtimeHandler 创建实时通道处理器
func NewRealtimeHandler(
	cfg config.RealtimeConfig,
	cors config.CORSConfig,
	projectRepo repository.ProjectRepository,
	hub *realtime.Hub,
	dispatcher studio.PromptDispatcher,
	gate PromptGate,
) *RealtimeHandler {
	h := &RealtimeHandler{
		projectRepo: projectRepo,
		hub:         hub,
		dispatcher:  dispatcher,
		gate:        gate,
		writeWait:   cfg.WriteTimeout,
		pingEvery:   cfg.PingInterval,
	}
	if h.writeWait <= 0 {
		h.writeWait = 10 * time.Second
	}
	if h.pingEvery <= 0 {
		h.pingEvery = 30 * time.Second
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cors.AllowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// Connect 升级为 websocket
// @Summary 项目实时通道
// @Tags Realtime
// @Param pid path string true "项目 ID"
// @Success 101 "websocket"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/projects/{pid}/ws [get]
func (h *RealtimeHandler) Connect(c *gin.Context) {
	ctx := c.Request.Context()

	project, err := loadProject(ctx, h.projectRepo, dto.BindProjectID(c))
	if err != nil {
		respondError(c, err, "failed to get project")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(ctx, "websocket upgrade failed", "error", err.Error())
		return
	}

	session := &wsSession{
		h:         h,
		conn:      conn,
		projectID: project.ID,
		out:       make(chan any, 16),
		joined:    make(chan *realtime.Subscription, 1),
		done:      make(chan struct{}),
	}
	session.serve(logger.WithProject(context.WithoutCancel(ctx), project.ID))
}

// wsSession 单个连接；读写各一个 goroutine，写操作只在写 goroutine 中进行
type wsSession struct {
	h         *RealtimeHandler
	conn      *websocket.Conn
	projectID string
	out       chan any
	joined    chan *realtime.Subscription
	done      chan struct{}
	closeOnce sync.Once
	sub       *realtime.Subscription
}

func (s *wsSession) serve(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(ctx)
	}()

	s.readLoop(ctx)
	s.close()
	wg.Wait()

	if s.sub != nil {
		s.sub.Close()
	}
}

func (s *wsSession) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *wsSession) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxClientMessageBytes)
	deadline := s.h.pingEvery * 2
	_ = s.conn.SetReadDeadline(time.Now().Add(deadline))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn(ctx, "websocket read failed", "error", err.Error())
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(deadline))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.send(serverMessage(serverEventRefused, gin.H{"message": "malformed message"}))
			continue
		}
		s.handle(ctx, msg)
	}
}

func (s *wsSession) handle(ctx context.Context, msg clientMessage) {
	if msg.ProjectID != "" && msg.ProjectID != s.projectID {
		s.send(serverMessage(serverEventRefused, gin.H{"message": "connection is bound to project " + s.projectID}))
		return
	}

	switch msg.Event {
	case clientEventJoinProject:
		s.join()
		s.send(serverMessage(serverEventJoined, gin.H{"projectId": s.projectID}))

	case clientEventPrompt:
		// 发起提示的连接自动加入项目，才能收到本周期的事件
		s.join()
		if strings.TrimSpace(msg.Prompt) == "" {
			s.send(serverMessage(serverEventRefused, gin.H{"message": "prompt must not be empty"}))
			return
		}
		if s.h.gate != nil && !s.h.gate(ctx, s.projectID) {
			s.send(serverMessage(serverEventRefused, gin.H{"message": "rate limit exceeded"}))
			return
		}
		if err := s.h.dispatcher.Dispatch(ctx, s.projectID, msg.Prompt); err != nil {
			logger.Error(ctx, "failed to dispatch prompt", err)
			s.send(serverMessage(serverEventRefused, gin.H{"message": "prompt could not be scheduled"}))
			return
		}
		s.send(serverMessage(serverEventAck, gin.H{"projectId": s.projectID}))

	default:
		s.send(serverMessage(serverEventRefused, gin.H{"message": "unknown event: " + msg.Event}))
	}
}

// join 订阅项目事件，重复调用无副作用
func (s *wsSession) join() {
	if s.sub == nil {
		s.sub = s.h.hub.Subscribe(s.projectID)
		s.joined <- s.sub
	}
}

func serverMessage(event string, data any) gin.H {
	return gin.H{"event": event, "data": data}
}

// send 写入出站队列，连接关闭后丢弃
func (s *wsSession) send(v any) {
	select {
	case s.out <- v:
	case <-s.done:
	}
}

// writeLoop 退出时关闭底层连接，使阻塞中的读取立即返回
func (s *wsSession) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(s.h.pingEvery)
	defer ticker.Stop()
	defer s.conn.Close()

	var events <-chan *entity.EventEnvelope
	for {
		select {
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(s.h.writeWait))
			return

		case sub := <-s.joined:
			events = sub.C

		case env, ok := <-events:
			if !ok {
				s.close()
				return
			}
			if err := s.write(env); err != nil {
				logger.Warn(ctx, "websocket write failed", "error", err.Error())
				s.close()
				return
			}

		case msg := <-s.out:
			if err := s.write(msg); err != nil {
				logger.Warn(ctx, "websocket write failed", "error", err.Error())
				s.close()
				return
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.h.writeWait)); err != nil {
				s.close()
				return
			}
		}
	}
}

func (s *wsSession) write(v any) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.h.writeWait))
	return s.conn.WriteJSON(v)
}
