// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package notify sends administrator notifications when an assembly reaches
// quorum and when a vote closes. Telegram is used when TELEGRAM_TOKEN and
// TELEGRAM_CHAT_ID are set; otherwise notifications are dropped. Telegram
// messages go through a bounded queue and a single sender goroutine, so a
// slow Bot API never delays the request that triggered them.
package notify
