// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bus implements govman.ObserverBus: a fan-out of governance
// acceptance events to downstream consumers over a ZMQ PUB socket,
// grounded on proof/publisher.go's and peer/broadcaster.go's CURVE-secured
// publisher setup and multipart topic+payload send pattern.
package bus

import (
	"encoding/json"
	"sync"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"

	"github.com/dashpay/govman/govman"
	"github.com/dashpay/govman/internal/govfault"
	"github.com/dashpay/govman/util"
)

const (
	zapDomain = "governance-observer"

	topicObject = "govobj"
	topicVote   = "govvote"
)

// objectEvent/voteEvent are the JSON payloads published alongside the
// topic frame; field names mirror the wire notification the original
// emits via -zmqpubgovernanceobject/-zmqpubgovernancevote equivalents.
type objectEvent struct {
	Hash      govman.Hash       `json:"hash"`
	Type      govman.ObjectType `json:"type"`
	Timestamp int64             `json:"timestamp"`
}

type voteEvent struct {
	Hash       govman.Hash `json:"hash"`
	ParentHash govman.Hash `json:"parent_hash"`
	Timestamp  int64       `json:"timestamp"`
}

// ZMQBus publishes governance object/vote acceptance events on a bound
// CURVE-secured PUB socket. The zero value is not usable; construct with
// New.
type ZMQBus struct {
	mu     sync.Mutex
	log    *logger.L
	socket *zmq.Socket
}

// New binds a PUB socket on every address in listen, secured with the
// given CURVE keypair (raw 32-byte form, as returned by
// zmqutil.ReadPrivateKey/ReadPublicKey). Grounded on proof/publisher.go's
// initialise, generalised to bind each listen address in turn.
func New(listen []string, privateKey, publicKey []byte) (*ZMQBus, error) {
	log := logger.New("governance-observer")
	if log == nil {
		return nil, govfault.ErrInvalidLoggerChannel
	}

	socket, err := zmq.NewSocket(zmq.PUB)
	if err != nil {
		return nil, err
	}
	socket.SetLinger(0)

	zmq.AuthCurveAdd(zapDomain, zmq.CURVE_ALLOW_ANY)
	socket.SetCurveServer(1)
	socket.SetCurveSecretkey(string(privateKey))
	socket.SetZapDomain(zapDomain)
	socket.SetIdentity(string(publicKey))

	for _, address := range listen {
		bindTo, err := util.CanonicalIPandPort(address)
		if err != nil {
			socket.Close()
			return nil, err
		}
		if err := socket.Bind("tcp://" + bindTo); err != nil {
			socket.Close()
			return nil, err
		}
		log.Infof("publish on: %q", bindTo)
	}

	return &ZMQBus{log: log, socket: socket}, nil
}

// NotifyGovernanceObject implements govman.ObserverBus.
func (b *ZMQBus) NotifyGovernanceObject(o *govman.Object) {
	data, err := json.Marshal(objectEvent{Hash: o.Hash, Type: o.Type, Timestamp: o.CreationTime.Unix()})
	if err != nil {
		b.log.Errorf("encode governance object event: %v", err)
		return
	}
	b.publish(topicObject, data)
}

// NotifyGovernanceVote implements govman.ObserverBus.
func (b *ZMQBus) NotifyGovernanceVote(v *govman.Vote) {
	data, err := json.Marshal(voteEvent{Hash: v.Hash, ParentHash: v.ParentHash, Timestamp: v.Timestamp.Unix()})
	if err != nil {
		b.log.Errorf("encode governance vote event: %v", err)
		return
	}
	b.publish(topicVote, data)
}

func (b *ZMQBus) publish(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.socket.Send(topic, zmq.SNDMORE|zmq.DONTWAIT); err != nil {
		b.log.Warnf("publish %s topic frame: %v", topic, err)
		return
	}
	if _, err := b.socket.SendBytes(payload, zmq.DONTWAIT); err != nil {
		b.log.Warnf("publish %s payload frame: %v", topic, err)
	}
}

// Close releases the underlying socket.
func (b *ZMQBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.socket.Close()
}
