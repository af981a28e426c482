package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar del dominio, para no tipear la key a mano en cada log.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func TenantID(v string) zap.Field  { return zap.String("tenant_id", v) }
func UserID(v string) zap.Field    { return zap.String("user_id", v) }
func ShopID(v string) zap.Field    { return zap.String("shop_id", v) }
func HeldSale(v string) zap.Field  { return zap.String("held_sale_id", v) }

func Method(v string) zap.Field          { return zap.String("method", v) }
func Path(v string) zap.Field            { return zap.String("path", v) }
func Status(v int) zap.Field             { return zap.Int("status", v) }
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
