package server

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dap-ware/whodis/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type watchRequest struct {
	Domain string `json:"domain"`
	Fresh  bool   `json:"fresh"`
}

type watchResponse struct {
	Domain string         `json:"domain"`
	Record *models.Record `json:"record,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// handleWatch upgrades the connection and serves a lookup per incoming
// message, so enrichment pipelines can stream domains through one
// connection instead of issuing thousands of HTTP requests.
func (s *Server) handleWatch(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading watch connection: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req watchRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Error reading watch message: %v", err)
			}
			return
		}

		resp := watchResponse{Domain: req.Domain}

		var rec models.Record
		if req.Fresh {
			rec, err = s.Client.LookupFresh(c.Request.Context(), req.Domain)
		} else {
			rec, err = s.Client.Lookup(c.Request.Context(), req.Domain)
		}
		if err != nil {
			resp.Error = err.Error()
		} else {
			resp.Record = &rec
			if !rec.Cached {
				s.enqueue(rec)
			}
		}

		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("Error writing watch message: %v", err)
			return
		}
	}
}
