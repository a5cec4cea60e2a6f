package main

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandleReport(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handleReport(zap.New(core), amqp.Delivery{
		Body: []byte(`{"id":"r1","submitted_at":1715003456000,"type":"fire","title":"Warehouse fire"}`),
	})

	entries := logs.FilterMessage("emergency report").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 report logged, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["report_id"] != "r1" || fields["submitted_at"] != int64(1715003456000) {
		t.Errorf("unexpected fields %v", fields)
	}
	if fields["type"] != "fire" {
		t.Errorf("expected wizard field decoded, got %v", fields["type"])
	}
}

func TestHandleReport_Undecodable(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	handleReport(zap.New(core), amqp.Delivery{Body: []byte(`[`)})

	if logs.FilterMessage("undecodable report").Len() != 1 {
		t.Fatal("expected undecodable report warning")
	}
}
