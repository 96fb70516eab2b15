package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"backend/pkg/models"

	"github.com/gorilla/websocket"
)

// WebSocketManager gerencia as conexões WebSocket e a distribuição de
// registros de análise de tremor aos clientes
type WebSocketManager struct {
	clients         map[*websocket.Conn]bool
	recordBroadcast chan *models.TremorRecord
	multiBroadcast  chan models.MultiDeviceData
	register        chan *websocket.Conn
	unregister      chan *websocket.Conn
	mutex           sync.Mutex
	connCount       int // Contador de conexões ativas
}

// NewWebSocketManager cria um novo gerenciador de WebSockets
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients:         make(map[*websocket.Conn]bool),
		recordBroadcast: make(chan *models.TremorRecord),
		multiBroadcast:  make(chan models.MultiDeviceData),
		register:        make(chan *websocket.Conn),
		unregister:      make(chan *websocket.Conn),
		connCount:       0,
	}
}

// Run inicia o gerenciador de WebSockets
func (manager *WebSocketManager) Run() {
	for {
		select {
		case client := <-manager.register:
			manager.mutex.Lock()
			if _, exists := manager.clients[client]; !exists {
				manager.clients[client] = true
				manager.connCount++
				log.Printf("Novo cliente conectado. ID: %p, Total: %d", client, manager.connCount)
			}
			manager.mutex.Unlock()

		case client := <-manager.unregister:
			manager.mutex.Lock()
			if _, ok := manager.clients[client]; ok {
				delete(manager.clients, client)
				manager.connCount--
				log.Printf("Cliente desconectado. ID: %p, Total: %d", client, manager.connCount)
				client.Close()
			}
			manager.mutex.Unlock()

		case record := <-manager.recordBroadcast:
			manager.sendToAll(record)

		case multi := <-manager.multiBroadcast:
			manager.sendToAll(multi)
		}
	}
}

// sendToAll envia um payload JSON a todos os clientes, removendo os
// que falharem na escrita
func (manager *WebSocketManager) sendToAll(payload interface{}) {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for client := range manager.clients {
		if err := client.WriteJSON(payload); err != nil {
			log.Printf("Erro ao enviar mensagem: %v. Removendo cliente: %p", err, client)
			client.Close()
			delete(manager.clients, client)
			manager.connCount--
		}
	}
}

// BroadcastRecord envia um registro de análise para todos os clientes
func (manager *WebSocketManager) BroadcastRecord(record *models.TremorRecord) {
	manager.mutex.Lock()
	clientCount := len(manager.clients)
	manager.mutex.Unlock()

	if clientCount > 0 {
		manager.recordBroadcast <- record
	}
}

// BroadcastMultiDeviceData envia o snapshot de múltiplas fontes para
// todos os clientes conectados
func (manager *WebSocketManager) BroadcastMultiDeviceData(data models.MultiDeviceData) {
	manager.mutex.Lock()
	clientCount := len(manager.clients)
	manager.mutex.Unlock()

	if clientCount > 0 {
		manager.multiBroadcast <- data
	}
}

// CloseAll encerra todas as conexões ativas
func (manager *WebSocketManager) CloseAll() {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()

	for client := range manager.clients {
		client.Close()
		delete(manager.clients, client)
	}

	manager.connCount = 0
	log.Println("Todas as conexões WebSocket foram encerradas.")
}

// GetConnectedCount retorna número de clientes conectados
func (manager *WebSocketManager) GetConnectedCount() int {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	return manager.connCount
}

// Configuração de websocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Permitir todas as origens
		return true
	},
}

// HandleWebSocket trata conexões WebSocket
func (manager *WebSocketManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		http.Error(w, "Não é uma requisição WebSocket válida", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Erro ao fazer upgrade para WebSocket: %v", err)
		return
	}

	conn.SetCloseHandler(func(code int, text string) error {
		log.Printf("Conexão WebSocket fechada com código %d: %s", code, text)
		manager.unregister <- conn
		return nil
	})

	manager.register <- conn

	// Monitorar desconexões e responder a pings
	go func() {
		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure) {
					log.Printf("Erro WebSocket: %v", err)
				}
				manager.unregister <- conn
				break
			}

			if messageType == websocket.PingMessage {
				if err := conn.WriteMessage(websocket.PongMessage, nil); err != nil {
					log.Printf("Erro ao enviar pong: %v", err)
					manager.unregister <- conn
					break
				}
			}
		}
	}()
}

// ServeHTTP inicia o servidor HTTP com o endpoint WebSocket e a API
// de status do monitor
func (manager *WebSocketManager) ServeHTTP(port int, status func() models.MultiDeviceData) {
	http.HandleFunc("/ws", manager.HandleWebSocket)

	http.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		info := struct {
			Version string `json:"version"`
			Name    string `json:"name"`
		}{
			Version: "2.0.0",
			Name:    "EMG Tremor Monitor",
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(info)
	})

	http.HandleFunc("/api/devices", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if status == nil {
			json.NewEncoder(w).Encode(models.MultiDeviceData{})
			return
		}
		json.NewEncoder(w).Encode(status())
	})

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Servidor Web e WebSocket iniciado na porta %d", port)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatal("Erro ao iniciar servidor HTTP: ", err)
	}
}
