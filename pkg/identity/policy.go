package identity

// ClassifyVoice grades a voice similarity score against the configured
// thresholds.
func ClassifyVoice(score float32, cfg PolicyConfig) (strong, ok bool) {
	return score >= cfg.VoiceStrong, score >= cfg.VoiceOK
}

// ClassifyFace grades a face similarity score against the configured
// thresholds.
func ClassifyFace(score float32, cfg PolicyConfig) (strong, ok bool) {
	return score >= cfg.FaceStrong, score >= cfg.FaceOK
}

// DecideIdentity fuses one turn's voice and face evidence into a
// Decision. The returned Decision has no actions yet; see PlanActions.
//
// The branch order is part of the contract: agreement between modalities
// takes precedence over single-modality strength even when the single
// modality's raw score is higher.
func DecideIdentity(voice, face Evidence, cfg PolicyConfig) Decision {
	// Agreement: both modalities name the same person and one is strong
	// while the other is at least ok.
	if voice.UserID != "" && face.UserID != "" && voice.UserID == face.UserID {
		if (voice.Strong && face.OK) || (face.Strong && voice.OK) {
			return Decision{
				UserID:     voice.UserID,
				Via:        ViaBoth,
				Confidence: max(voice.Score, face.Score),
				Certainty:  CertaintyStrong,
			}
		}
	}

	// Exactly one modality strong: resolve to it. With well-ordered
	// thresholds strong implies ok, so certainty is strong; the weak
	// branch only fires under a misconfigured ok > strong ordering.
	if voice.Strong && !face.Strong {
		return Decision{
			UserID:     voice.UserID,
			Via:        ViaVoice,
			Confidence: voice.Score,
			Certainty:  strongIf(voice.OK),
		}
	}
	if face.Strong && !voice.Strong {
		return Decision{
			UserID:     face.UserID,
			Via:        ViaFace,
			Confidence: face.Score,
			Certainty:  strongIf(face.OK),
		}
	}

	// Neither strong but at least one ok: pick the higher score, voice
	// winning ties.
	if voice.OK || face.OK {
		best := face
		if voice.Score >= face.Score {
			best = voice
		}
		return Decision{
			UserID:     best.UserID,
			Via:        Via(best.Source),
			Confidence: best.Score,
			Certainty:  CertaintyWeak,
		}
	}

	return Decision{Via: ViaNone, Certainty: CertaintyUnknown}
}

func strongIf(ok bool) Certainty {
	if ok {
		return CertaintyStrong
	}
	return CertaintyWeak
}

// PlanActions turns a Decision into the instructions the application
// should execute this turn.
//
// For a recognized user it emits zero, one, or two STORE_* actions,
// one per modality whose candidate matches the decision and whose score
// clears the modality's store threshold. For an unknown person it emits
// exactly one action: ASK_NAME if the session's cooldown has elapsed
// (marking the session as asked), LOG_ONLY otherwise. The session's ask
// timestamp is the only state PlanActions mutates.
func PlanActions(decision Decision, voice, face Evidence, session *Session, cfg PolicyConfig) []Action {
	var acts []Action

	// Continual learning: recognized someone, store fresh high-quality
	// templates.
	if decision.UserID != "" {
		uid := decision.UserID
		if voice.UserID == uid && voice.Score >= cfg.StoreVoiceMinSim {
			acts = append(acts, Action{
				Kind:    ActionStoreVoice,
				Payload: map[string]any{"user_id": uid, "score": voice.Score},
			})
		}
		if face.UserID == uid && face.Score >= cfg.StoreFaceMinSim {
			payload := map[string]any{"user_id": uid, "score": face.Score}
			for _, k := range []string{"det_score", "bbox", "faces_count"} {
				if v, present := face.Meta[k]; present {
					payload[k] = v
				}
			}
			acts = append(acts, Action{Kind: ActionStoreFace, Payload: payload})
		}
		return acts
	}

	// Unknown: politely ask for a name, rate-limited.
	if session.CanAskName(cfg) {
		session.MarkAsked()
		return []Action{{
			Kind:    ActionAskName,
			Payload: map[string]any{"prompt": cfg.AskNamePrompt, "lang": cfg.AskNameLang},
		}}
	}
	return []Action{{
		Kind:    ActionLogOnly,
		Payload: map[string]any{"msg": "unknown speaker this turn; ask-name cooldown active"},
	}}
}
