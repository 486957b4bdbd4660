package canbus

import (
	"log"
	"sync"
)

type CANBusInterface interface {
	AddListener(nodeId uint32, rxchan chan CANMsg)
	SendMsg(msg CANMsg) error
}

// listeners routes received frames to the node registered for their ID.
type listeners struct {
	lock sync.RWMutex
	rx   map[uint32]chan CANMsg
}

func (l *listeners) add(nodeId uint32, rxchan chan CANMsg) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.rx == nil {
		l.rx = make(map[uint32]chan CANMsg)
	}
	l.rx[nodeId] = rxchan
}

// route never blocks the reader; a node that is not draining its channel loses the frame.
func (l *listeners) route(msg CANMsg) {
	l.lock.RLock()
	c, ok := l.rx[msg.ID]
	l.lock.RUnlock()

	if !ok {
		return
	}

	select {
	case c <- msg:
	default:
		log.Printf("canbus: dropped frame for node 0x%x cmd 0x%04x", msg.ID, msg.Cmd)
	}
}

// txQueue hands encoded frames to a single writer goroutine. Senders never wait on the writer:
// a full queue is reported as ERR_BUS_BUSY.
type txQueue struct {
	lock sync.Mutex
	open bool
	tx   chan []byte
	done chan struct{}
}

func newTxQueue(size int, write func(raw []byte)) *txQueue {
	q := &txQueue{
		open: true,
		tx:   make(chan []byte, size),
		done: make(chan struct{}),
	}

	go func() {
		defer close(q.done)
		for raw := range q.tx {
			write(raw)
		}
	}()

	return q
}

func (q *txQueue) send(raw []byte) error {
	q.lock.Lock()
	defer q.lock.Unlock()
	if !q.open {
		return ERR_BUS_CLOSED
	}

	select {
	case q.tx <- raw:
		return nil
	default:
		return ERR_BUS_BUSY
	}
}

// close stops accepting frames and returns once everything queued has been written. Only the
// first call reports true.
func (q *txQueue) close() bool {
	q.lock.Lock()
	if !q.open {
		q.lock.Unlock()
		return false
	}
	q.open = false
	close(q.tx)
	q.lock.Unlock()

	<-q.done
	return true
}
