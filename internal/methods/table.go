package methods

import "time"

func f(v float64) *float64 { return &v }

// buildTable constructs the static descriptor table. This is a
// representative slice of the bot platform's ~160-method surface,
// chosen to exercise every pipeline-relevant flag combination named in
// spec.md §3-§4: cacheable methods at each of the documented TTLs,
// destination-scoped send/edit/admin methods, single-file uploads,
// array-of-objects uploads (sticker sets), nested-object uploads
// (profile photos), and the cross-field rule on message edits.
func buildTable() map[string]*Descriptor {
	t := make(map[string]*Descriptor)

	add := func(d *Descriptor) { t[d.Name] = d }

	// ---------------------------------------------------------------
	// Bot identity & webhook info — cacheable, not destination-scoped.
	// ---------------------------------------------------------------
	add(&Descriptor{
		Name:      "get_identity",
		Cacheable: true,
		CacheTTL:  3600 * time.Second,
	})
	add(&Descriptor{
		Name:      "get_webhook_info",
		Cacheable: true,
		CacheTTL:  60 * time.Second,
	})
	add(&Descriptor{
		Name:     "set_webhook",
		Required: []string{"url"},
		Optional: []string{"secret_token", "max_connections", "drop_pending_updates"},
		Schemas: map[string]*ParamSchema{
			"url":                  {Type: "string"},
			"secret_token":         {Type: "string"},
			"max_connections":      {Type: "integer", Min: f(1), Max: f(100)},
			"drop_pending_updates": {Type: "boolean"},
		},
	})
	add(&Descriptor{Name: "delete_webhook", Optional: []string{"drop_pending_updates"}})

	// ---------------------------------------------------------------
	// Message sending — destination-scoped, not cacheable.
	// ---------------------------------------------------------------
	add(&Descriptor{
		Name:             "send_text",
		Required:         []string{"chat_id", "text"},
		Optional:         []string{"parse_mode", "reply_to_message_id", "disable_notification"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		Schemas: map[string]*ParamSchema{
			"chat_id":    {Type: "string"},
			"text":       {Type: "string"},
			"parse_mode": {Type: "string", Enum: []string{"Markdown", "MarkdownV2", "HTML"}},
		},
	})
	add(&Descriptor{
		Name:             "forward_message",
		Required:         []string{"chat_id", "from_chat_id", "message_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "copy_message",
		Required:         []string{"chat_id", "from_chat_id", "message_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "delete_message",
		Required:         []string{"chat_id", "message_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "send_chat_action",
		Required:         []string{"chat_id", "action"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		Schemas: map[string]*ParamSchema{
			"action": {Type: "string", Enum: []string{"typing", "upload_photo", "record_video", "upload_document"}},
		},
	})

	// send_photo/document/video/audio/voice/animation: single-file upload.
	for _, m := range []string{"send_photo", "send_document", "send_video", "send_audio", "send_voice", "send_animation"} {
		field := map[string]string{
			"send_photo": "photo", "send_document": "document", "send_video": "video",
			"send_audio": "audio", "send_voice": "voice", "send_animation": "animation",
		}[m]
		add(&Descriptor{
			Name:             m,
			Required:         []string{"chat_id", field},
			Optional:         []string{"caption", "parse_mode", "reply_to_message_id"},
			DestinationScoped: true,
			DestinationField: "chat_id",
			Uploads:          []UploadSlot{{Name: field, Kind: UploadSingle}},
		})
	}

	// send_media_group: array of objects each carrying a "media" file field.
	add(&Descriptor{
		Name:             "send_media_group",
		Required:         []string{"chat_id", "media"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		Schemas: map[string]*ParamSchema{
			"media": {Type: "array"},
		},
		Uploads: []UploadSlot{{Name: "media", Kind: UploadArrayOfObjects, NestedField: "media"}},
	})

	// send_sticker: single-file upload.
	add(&Descriptor{
		Name:             "send_sticker",
		Required:         []string{"chat_id", "sticker"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		Uploads:          []UploadSlot{{Name: "sticker", Kind: UploadSingle}},
	})

	// create_new_sticker_set: array of sticker descriptor objects.
	add(&Descriptor{
		Name:     "create_new_sticker_set",
		Required: []string{"user_id", "name", "title", "stickers"},
		Schemas: map[string]*ParamSchema{
			"stickers": {Type: "array"},
		},
		Uploads: []UploadSlot{{Name: "stickers", Kind: UploadArrayOfObjects, NestedField: "sticker"}},
	})
	add(&Descriptor{
		Name:      "get_sticker_set",
		Required:  []string{"name"},
		Cacheable: true,
		CacheTTL:  300 * time.Second,
	})

	// set_chat_photo: single-file upload.
	add(&Descriptor{
		Name:             "set_chat_photo",
		Required:         []string{"chat_id", "photo"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		Uploads:          []UploadSlot{{Name: "photo", Kind: UploadSingle}},
	})
	add(&Descriptor{
		Name:             "delete_chat_photo",
		Required:         []string{"chat_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})

	// set_profile_photo: nested object with photo/animation sub-fields.
	add(&Descriptor{
		Name:     "set_profile_photo",
		Required: []string{"photo"},
		Schemas: map[string]*ParamSchema{
			"photo": {Type: "object", Properties: map[string]*ParamSchema{
				"photo":     {Type: "string"},
				"animation": {Type: "string"},
			}},
		},
		Uploads: []UploadSlot{{Name: "photo", Kind: UploadNestedObject, NestedField: "photo"}},
	})

	// edit_message_text: cross-field rule (chat_id+message_id) OR inline_message_id.
	add(&Descriptor{
		Name:             "edit_message_text",
		Required:         []string{"text"},
		Optional:         []string{"chat_id", "message_id", "inline_message_id", "parse_mode"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		CrossField: []CrossFieldRule{{
			Description: "either chat_id+message_id or inline_message_id is required",
			AnyOf: [][]string{
				{"chat_id", "message_id"},
				{"inline_message_id"},
			},
		}},
	})
	add(&Descriptor{
		Name:     "edit_message_media",
		Required: []string{"media"},
		Optional: []string{"chat_id", "message_id", "inline_message_id"},
		CrossField: []CrossFieldRule{{
			Description: "either chat_id+message_id or inline_message_id is required",
			AnyOf: [][]string{
				{"chat_id", "message_id"},
				{"inline_message_id"},
			},
		}},
		Uploads: []UploadSlot{{Name: "media", Kind: UploadNestedObject, NestedField: "media"}},
	})

	// Chat info & administration.
	add(&Descriptor{
		Name:      "get_chat",
		Required:  []string{"chat_id"},
		Cacheable: true,
		CacheTTL:  120 * time.Second,
	})
	add(&Descriptor{Name: "get_chat_administrators", Required: []string{"chat_id"}})
	add(&Descriptor{Name: "get_chat_member_count", Required: []string{"chat_id"}})
	add(&Descriptor{Name: "get_chat_member", Required: []string{"chat_id", "user_id"}})
	add(&Descriptor{
		Name:             "ban_chat_member",
		Required:         []string{"chat_id", "user_id"},
		Optional:         []string{"until_date", "revoke_messages"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "unban_chat_member",
		Required:         []string{"chat_id", "user_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "restrict_chat_member",
		Required:         []string{"chat_id", "user_id", "permissions"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "promote_chat_member",
		Required:         []string{"chat_id", "user_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "set_chat_title",
		Required:         []string{"chat_id", "title"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		Schemas: map[string]*ParamSchema{
			"title": {Type: "string"},
		},
	})
	add(&Descriptor{
		Name:             "set_chat_description",
		Required:         []string{"chat_id"},
		Optional:         []string{"description"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "pin_chat_message",
		Required:         []string{"chat_id", "message_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "unpin_chat_message",
		Required:         []string{"chat_id"},
		Optional:         []string{"message_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "leave_chat",
		Required:         []string{"chat_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "export_chat_invite_link",
		Required:         []string{"chat_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})

	// Interactive replies.
	add(&Descriptor{
		Name:     "answer_callback_query",
		Required: []string{"callback_query_id"},
		Optional: []string{"text", "show_alert", "url", "cache_time"},
	})
	add(&Descriptor{
		Name:     "answer_inline_query",
		Required: []string{"inline_query_id", "results"},
		Optional: []string{"cache_time", "is_personal", "next_offset"},
	})

	// Polls, dice, location, venue, contact.
	add(&Descriptor{
		Name:             "send_poll",
		Required:         []string{"chat_id", "question", "options"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		Schemas: map[string]*ParamSchema{
			"options": {Type: "array", Items: &ParamSchema{Type: "string"}},
		},
	})
	add(&Descriptor{
		Name:             "stop_poll",
		Required:         []string{"chat_id", "message_id"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "send_dice",
		Required:         []string{"chat_id"},
		Optional:         []string{"emoji"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "send_location",
		Required:         []string{"chat_id", "latitude", "longitude"},
		DestinationScoped: true,
		DestinationField: "chat_id",
		Schemas: map[string]*ParamSchema{
			"latitude":  {Type: "number", Min: f(-90), Max: f(90)},
			"longitude": {Type: "number", Min: f(-180), Max: f(180)},
		},
	})
	add(&Descriptor{
		Name:             "send_venue",
		Required:         []string{"chat_id", "latitude", "longitude", "title", "address"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{
		Name:             "send_contact",
		Required:         []string{"chat_id", "phone_number", "first_name"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})

	// Commands (bot-level, not destination-scoped) & chat permissions
	// (destination-scoped).
	add(&Descriptor{Name: "set_my_commands", Required: []string{"commands"}})
	add(&Descriptor{Name: "get_my_commands"})
	add(&Descriptor{Name: "delete_my_commands"})
	add(&Descriptor{
		Name:             "set_chat_permissions",
		Required:         []string{"chat_id", "permissions"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})

	// Payments.
	add(&Descriptor{
		Name:             "send_invoice",
		Required:         []string{"chat_id", "title", "description", "payload", "provider_token", "currency", "prices"},
		DestinationScoped: true,
		DestinationField: "chat_id",
	})
	add(&Descriptor{Name: "answer_shipping_query", Required: []string{"shipping_query_id", "ok"}})
	add(&Descriptor{Name: "answer_pre_checkout_query", Required: []string{"pre_checkout_query_id", "ok"}})

	// Profile photos, file download.
	add(&Descriptor{Name: "get_user_profile_photos", Required: []string{"user_id"}})
	add(&Descriptor{Name: "get_file", Required: []string{"file_id"}})

	return t
}
